package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotIDFor_Deterministic(t *testing.T) {
	end := time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)

	id1 := SnapshotIDFor(end)
	id2 := SnapshotIDFor(end)

	assert.Equal(t, "wk_2026-08-30", id1)
	assert.Equal(t, id1, id2)
}

func TestSnapshotIDFor_NormalizesTimezone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	utc := time.Date(2026, 8, 30, 22, 30, 0, 0, time.UTC)
	local := utc.In(berlin)

	assert.Equal(t, SnapshotIDFor(utc), SnapshotIDFor(local))
}

func TestNewExecutionContext_JobIDFormat(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	ec := NewExecutionContext(TriggerScheduled, now, now)

	parts := strings.Split(ec.JobID, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, "job", parts[0])
	assert.Equal(t, "20260831T090000Z", parts[1])
	assert.Len(t, parts[2], 8)
	assert.False(t, ec.IsRetry)
}

func TestNewExecutionContext_UniqueUnderSameClock(t *testing.T) {
	now := time.Now()

	a := NewExecutionContext(TriggerManual, now, now)
	b := NewExecutionContext(TriggerManual, now, now)

	assert.NotEqual(t, a.JobID, b.JobID)
}

func TestTicket_HasTag(t *testing.T) {
	ticket := Ticket{Tags: []string{"urgent", "Data-Loss"}}

	assert.True(t, ticket.HasTag("data-loss"))
	assert.True(t, ticket.HasTag("urgent"))
	assert.False(t, ticket.HasTag("billing"))
}

func TestTicket_IsResolved(t *testing.T) {
	tests := []struct {
		status TicketStatus
		want   bool
	}{
		{TicketStatusOpen, false},
		{TicketStatusPending, false},
		{TicketStatusResolved, true},
		{TicketStatusClosed, true},
	}
	for _, tc := range tests {
		ticket := Ticket{Status: tc.status}
		assert.Equal(t, tc.want, ticket.IsResolved(), "status %s", tc.status)
	}
}

func TestTicket_ResolutionHours(t *testing.T) {
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	ticket := Ticket{
		Status:    TicketStatusResolved,
		CreatedAt: created,
		UpdatedAt: created.Add(36 * time.Hour),
	}

	assert.InDelta(t, 36.0, ticket.ResolutionHours(), 0.001)
}

func TestJobCompletion_Validate(t *testing.T) {
	errMsg := "collaborator timeout"

	tests := []struct {
		name    string
		c       JobCompletion
		wantErr bool
	}{
		{"completed without error", JobCompletion{Status: JobStatusCompleted}, false},
		{"completed with error", JobCompletion{Status: JobStatusCompleted, Error: &errMsg}, true},
		{"failed with error", JobCompletion{Status: JobStatusFailed, Error: &errMsg}, false},
		{"failed without error", JobCompletion{Status: JobStatusFailed}, true},
		{"non-terminal", JobCompletion{Status: JobStatusRunning}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRetentionAuditEntry_Validate(t *testing.T) {
	valid := RetentionAuditEntry{
		Action:        RetentionActionSnapshotDeleted,
		TargetID:      "wk_2025-01-05",
		RowCount:      1,
		Justification: "snapshot past hard expiry plus grace period",
	}
	require.NoError(t, valid.Validate())

	missingJustification := valid
	missingJustification.Justification = "   "
	require.Error(t, missingJustification.Validate())

	missingTarget := valid
	missingTarget.TargetID = ""
	require.Error(t, missingTarget.Validate())

	badAction := valid
	badAction.Action = "vacuumed"
	require.Error(t, badAction.Validate())
}

func TestValidateConfigKey(t *testing.T) {
	require.NoError(t, ValidateConfigKey("helpdesk.api_key"))
	require.NoError(t, ValidateConfigKey("tickets.sync_cursor"))
	require.Error(t, ValidateConfigKey(""))
	require.Error(t, ValidateConfigKey(".leading-dot"))
	require.Error(t, ValidateConfigKey("has space"))
	require.Error(t, ValidateConfigKey(strings.Repeat("k", 300)))
}

func TestSyncPlan(t *testing.T) {
	full := FullSync()
	assert.True(t, full.IsFull())
	assert.True(t, full.Since.IsZero())

	since := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	inc := IncrementalSync(since)
	assert.False(t, inc.IsFull())
	assert.Equal(t, since, inc.Since)
}
