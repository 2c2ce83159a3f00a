package data

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/deskmetrics/deskmetrics/internal/errors"
)

// The absent-row sentinels must carry the NotFound code end to end: the sync
// planner falls back to a full sync when the cursor read reports NotFound,
// and the helpdesk client turns a missing API key into a configuration error
// through the same check.
func TestNotFoundSentinelsCarryNotFoundCode(t *testing.T) {
	tests := map[string]error{
		"config entry":      ErrConfigNotFound,
		"job execution":     ErrJobNotFound,
		"snapshot":          ErrSnapshotNotFound,
		"monthly aggregate": ErrAggregateNotFound,
	}

	for name, sentinel := range tests {
		t.Run(name, func(t *testing.T) {
			assert.True(t, apperrors.IsNotFound(sentinel))

			wrapped := fmt.Errorf("read row: %w", sentinel)
			assert.True(t, apperrors.IsNotFound(wrapped), "code must survive wrapping")
			assert.ErrorIs(t, wrapped, sentinel)
		})
	}
}
