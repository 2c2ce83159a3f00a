package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the state of a pipeline run in the execution ledger.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// TriggerSource identifies what fired a pipeline run.
type TriggerSource string

const (
	TriggerScheduled TriggerSource = "scheduled"
	TriggerManual    TriggerSource = "manual"
)

// ExecutionContext is created fresh per pipeline invocation and is immutable.
// The job id combines a timestamp with a random suffix so ids stay unique even
// under clock skew between restarts.
type ExecutionContext struct {
	JobID       string        `json:"job_id"`
	Source      TriggerSource `json:"source"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	ExecutedAt  time.Time     `json:"executed_at"`
	IsRetry     bool          `json:"is_retry"`
	RetryCount  int           `json:"retry_count"`
}

// NewExecutionContext builds an ExecutionContext for a run triggered now.
func NewExecutionContext(source TriggerSource, scheduledAt, executedAt time.Time) ExecutionContext {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return ExecutionContext{
		JobID:       fmt.Sprintf("job_%s_%s", executedAt.UTC().Format("20060102T150405Z"), suffix),
		Source:      source,
		ScheduledAt: scheduledAt,
		ExecutedAt:  executedAt,
	}
}

// JobExecution is one row of the pipeline run ledger. Created at start with
// status running, finalized exactly once, never deleted.
type JobExecution struct {
	JobID           string        `json:"job_id"                db:"job_id"`
	Status          JobStatus     `json:"status"                db:"status"`
	Source          TriggerSource `json:"source"                db:"source"`
	SnapshotID      *string       `json:"snapshot_id,omitempty" db:"snapshot_id"`
	StartedAt       time.Time     `json:"started_at"            db:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	DurationMs      *int64        `json:"duration_ms,omitempty"  db:"duration_ms"`
	Error           *string       `json:"error,omitempty"        db:"error"`
	TicketsFetched  int           `json:"tickets_fetched"        db:"tickets_fetched"`
	TicketsUpserted int           `json:"tickets_upserted"       db:"tickets_upserted"`
}

// JobCompletion carries the final state written back to a ledger row.
type JobCompletion struct {
	Status          JobStatus
	SnapshotID      *string
	CompletedAt     time.Time
	Error           *string
	TicketsFetched  int
	TicketsUpserted int
}

// Validate checks that the completion terminal state is consistent.
func (c *JobCompletion) Validate() error {
	switch c.Status {
	case JobStatusCompleted:
		if c.Error != nil {
			return fmt.Errorf("completed job must not carry an error")
		}
	case JobStatusFailed:
		if c.Error == nil || strings.TrimSpace(*c.Error) == "" {
			return fmt.Errorf("failed job requires a non-empty error")
		}
	default:
		return fmt.Errorf("completion status must be terminal, got %q", c.Status)
	}
	return nil
}
