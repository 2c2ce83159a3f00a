package model

import (
	"errors"
	"strings"
	"time"
)

// RetentionAction identifies the destructive operation an audit entry pairs with.
type RetentionAction string

const (
	// RetentionActionTicketsCompressed records a batch of full-resolution
	// tickets collapsed into a monthly aggregate.
	RetentionActionTicketsCompressed RetentionAction = "tickets_compressed"
	// RetentionActionSnapshotDeleted records deletion of an expired snapshot.
	RetentionActionSnapshotDeleted RetentionAction = "snapshot_deleted"
	// RetentionActionAggregatePurged records deletion of an aged-out aggregate.
	RetentionActionAggregatePurged RetentionAction = "aggregate_purged"
)

// RetentionAuditEntry is one append-only audit row. Every delete performed by
// the retention engine writes exactly one entry in the same transaction as the
// delete; there is no code path that deletes without one.
type RetentionAuditEntry struct {
	ID            string          `json:"id"            db:"id"`
	Action        RetentionAction `json:"action"        db:"action"`
	TargetID      string          `json:"target_id"     db:"target_id"`
	RowCount      int             `json:"row_count"     db:"row_count"`
	Justification string          `json:"justification" db:"justification"`
	CreatedAt     time.Time       `json:"created_at"    db:"created_at"`
}

// Validate enforces the audit invariants before the row is written.
func (e *RetentionAuditEntry) Validate() error {
	switch e.Action {
	case RetentionActionTicketsCompressed, RetentionActionSnapshotDeleted, RetentionActionAggregatePurged:
	default:
		return errors.New("unknown retention action")
	}
	if strings.TrimSpace(e.TargetID) == "" {
		return errors.New("audit entry requires a target id")
	}
	if strings.TrimSpace(e.Justification) == "" {
		return errors.New("audit entry requires a non-empty justification")
	}
	if e.RowCount < 0 {
		return errors.New("audit row count cannot be negative")
	}
	return nil
}
