// Package core defines the ports between the service layer and the data and
// adapter layers. Services depend on these interfaces, not on concrete
// implementations.
package core

import (
	"context"
	"time"

	"github.com/deskmetrics/deskmetrics/internal/domain/model"
)

// ConfigRepository persists the generic key/value config table with at-rest
// encryption and the config activity log.
type ConfigRepository interface {
	// Get returns the entry with a decrypted value, or a NotFound error.
	// Corrupt ciphertext surfaces as a Decryption error.
	Get(ctx context.Context, key string) (*model.ConfigEntry, error)
	// Set upserts the entry, encrypting the value when encrypt is true, and
	// appends an activity-log row in the same transaction.
	Set(ctx context.Context, key, value string, encrypt bool) (*model.ConfigEntry, error)
	// Delete removes the entry. Returns false when the key did not exist.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns entry metadata; encrypted values are not decrypted.
	List(ctx context.Context, limit, offset int) ([]*model.ConfigEntry, error)
}

// TicketRepository persists full-resolution ticket rows.
type TicketRepository interface {
	// UpsertBatch upserts one chunk of tickets keyed by external id inside a
	// single short transaction. Returns the number of rows written.
	UpsertBatch(ctx context.Context, tickets []model.Ticket) (int, error)
	// ListForPeriod returns tickets created within [start, end).
	ListForPeriod(ctx context.Context, start, end time.Time) ([]model.Ticket, error)
	// CompressionBuckets groups tickets created before the cutoff into
	// (year, month, partner) buckets without mutating anything.
	CompressionBuckets(ctx context.Context, cutoff time.Time) ([]model.MonthlyAggregate, error)
	// CompressBucket upserts the aggregate, deletes its source rows, and
	// appends the paired audit entry, all in one transaction. Returns the
	// number of rows removed.
	CompressBucket(ctx context.Context, cutoff time.Time, agg model.MonthlyAggregate, audit model.RetentionAuditEntry) (int, error)
	// Count returns the number of full-resolution rows.
	Count(ctx context.Context) (int, error)
}

// SnapshotRepository persists weekly snapshots with their child rows.
type SnapshotRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*model.WeeklySnapshot, error)
	// Insert writes the parent row, group stats, and chunked raw-row batches.
	Insert(ctx context.Context, snap model.WeeklySnapshot, stats []model.GroupResolutionStat, raw []model.SnapshotTicket) error
	// Replace deletes children, then the parent, then reinserts, in one
	// transaction.
	Replace(ctx context.Context, snap model.WeeklySnapshot, stats []model.GroupResolutionStat, raw []model.SnapshotTicket) error
	// ListExpiring returns snapshots past the notification threshold but not
	// yet expired.
	ListExpiring(ctx context.Context, notifyBefore, hardExpiry time.Time) ([]model.WeeklySnapshot, error)
	// ListExpired returns snapshots past expires_at or past the hard cutoff.
	ListExpired(ctx context.Context, now, hardCutoff time.Time) ([]model.WeeklySnapshot, error)
	// DeleteWithAudit removes a snapshot (children cascade) and appends the
	// paired audit entry in the same transaction.
	DeleteWithAudit(ctx context.Context, id string, audit model.RetentionAuditEntry) (bool, error)
}

// AggregateRepository persists monthly aggregates.
type AggregateRepository interface {
	// Upsert writes the aggregate keyed by (year, month, partner) with
	// last-write-wins semantics.
	Upsert(ctx context.Context, agg model.MonthlyAggregate) error
	GetByKey(ctx context.Context, key model.AggregateKey) (*model.MonthlyAggregate, error)
	List(ctx context.Context, limit, offset int) ([]model.MonthlyAggregate, error)
	// ListOlderThan returns aggregates whose bucket month ended before cutoff.
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]model.MonthlyAggregate, error)
	// DeleteWithAudit removes one aggregate and appends the paired audit
	// entry in the same transaction.
	DeleteWithAudit(ctx context.Context, key model.AggregateKey, audit model.RetentionAuditEntry) (bool, error)
}

// JobLedger persists the append-only pipeline run ledger.
type JobLedger interface {
	// CreateRunning inserts a row with status running.
	CreateRunning(ctx context.Context, ec model.ExecutionContext) (*model.JobExecution, error)
	// Finalize updates the row exactly once with its terminal state.
	Finalize(ctx context.Context, jobID string, completion model.JobCompletion) (*model.JobExecution, error)
	GetByJobID(ctx context.Context, jobID string) (*model.JobExecution, error)
	// ListRecent returns the newest ledger rows for operator inspection.
	ListRecent(ctx context.Context, limit int) ([]model.JobExecution, error)
}

// AuditLog reads the retention audit trail. Writes happen inside repository
// transactions paired with their deletes; this port exposes reads and the
// out-of-band fallback path.
type AuditLog interface {
	// Append writes an entry outside any delete transaction. Used only by the
	// fallback sink mirror; retention deletes write their entries in-tx.
	Append(ctx context.Context, entry model.RetentionAuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]model.RetentionAuditEntry, error)
	CountByAction(ctx context.Context, action model.RetentionAction) (int, error)
}

// CacheRepository is the byte-oriented cache port (Redis-backed in
// production). Holds reference data only; decrypted secrets never leave the
// process.
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
	Health(ctx context.Context) error
}

// HelpdeskClient is the ticketing collaborator contract. Calls are black-box,
// rate-limited, and retry-worthy; exhausted retries surface as
// CollaboratorFetch errors.
type HelpdeskClient interface {
	// GetAllTickets fetches the entire year-to-date corpus (FULL mode).
	GetAllTickets(ctx context.Context) ([]model.Ticket, error)
	// GetTicketsUpdatedSince fetches tickets updated since the watermark
	// (INCREMENTAL mode).
	GetTicketsUpdatedSince(ctx context.Context, since time.Time) ([]model.Ticket, error)
	GetReferenceGroups(ctx context.Context) ([]model.ReferenceGroup, error)
	GetReferenceCompanies(ctx context.Context) ([]model.ReferenceCompany, error)
}
