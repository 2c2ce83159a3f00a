package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/deskmetrics/deskmetrics/internal/core"
	"github.com/deskmetrics/deskmetrics/internal/data"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
	"github.com/deskmetrics/deskmetrics/internal/observability/metrics"
	"github.com/deskmetrics/deskmetrics/internal/observability/statsd"
)

// Retention tier defaults, in months of record age.
const (
	DefaultCompressAfterMonths = 12
	DefaultPurgeAfterMonths    = 36
	DefaultNotifyAfterMonths   = 12
	DefaultHardExpiryMonths    = 13
	DefaultGracePeriod         = 7 * 24 * time.Hour
)

// AuditFallbackSink mirrors audit entries to durable storage when the primary
// audit store rejects a write.
type AuditFallbackSink interface {
	Append(ctx context.Context, entry model.RetentionAuditEntry) error
}

// RetentionServiceOptions groups dependencies for RetentionService.
type RetentionServiceOptions struct {
	Tickets    core.TicketRepository    // Required
	Aggregates core.AggregateRepository // Required
	Snapshots  core.SnapshotRepository  // Required
	Fallback   AuditFallbackSink        // Optional: durable sink for failed audit writes

	CompressAfterMonths int           // Optional: defaults to DefaultCompressAfterMonths
	PurgeAfterMonths    int           // Optional: defaults to DefaultPurgeAfterMonths
	NotifyAfterMonths   int           // Optional: defaults to DefaultNotifyAfterMonths
	HardExpiryMonths    int           // Optional: defaults to DefaultHardExpiryMonths
	GracePeriod         time.Duration // Optional: defaults to DefaultGracePeriod

	TimeProvider data.TimeProvider
	Metrics      statsd.Sink
	Logger       *slog.Logger
}

// RetentionService enforces the tiered lifecycle over historical rows and
// snapshots. Its three operations are deliberately independent and
// independently schedulable: ticket compression, aggregate purge, and the
// snapshot-expiry scan. Every destructive action is paired with an audit row
// in the same transaction by the repository layer.
type RetentionService struct {
	tickets    core.TicketRepository
	aggregates core.AggregateRepository
	snapshots  core.SnapshotRepository
	fallback   AuditFallbackSink

	compressAfterMonths int
	purgeAfterMonths    int
	notifyAfterMonths   int
	hardExpiryMonths    int
	gracePeriod         time.Duration

	timeProvider data.TimeProvider
	metrics      statsd.Sink
	logger       *slog.Logger
}

// NewRetentionService constructs a new RetentionService.
func NewRetentionService(opts RetentionServiceOptions) (*RetentionService, error) {
	if opts.Tickets == nil {
		return nil, errors.New("TicketRepository is required")
	}
	if opts.Aggregates == nil {
		return nil, errors.New("AggregateRepository is required")
	}
	if opts.Snapshots == nil {
		return nil, errors.New("SnapshotRepository is required")
	}
	if opts.CompressAfterMonths <= 0 {
		opts.CompressAfterMonths = DefaultCompressAfterMonths
	}
	if opts.PurgeAfterMonths <= 0 {
		opts.PurgeAfterMonths = DefaultPurgeAfterMonths
	}
	if opts.NotifyAfterMonths <= 0 {
		opts.NotifyAfterMonths = DefaultNotifyAfterMonths
	}
	if opts.HardExpiryMonths <= 0 {
		opts.HardExpiryMonths = DefaultHardExpiryMonths
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "retention")
	}

	return &RetentionService{
		tickets:             opts.Tickets,
		aggregates:          opts.Aggregates,
		snapshots:           opts.Snapshots,
		fallback:            opts.Fallback,
		compressAfterMonths: opts.CompressAfterMonths,
		purgeAfterMonths:    opts.PurgeAfterMonths,
		notifyAfterMonths:   opts.NotifyAfterMonths,
		hardExpiryMonths:    opts.HardExpiryMonths,
		gracePeriod:         opts.GracePeriod,
		timeProvider:        opts.TimeProvider,
		metrics:             opts.Metrics,
		logger:              logger,
	}, nil
}

// MustNewRetentionService constructs a new RetentionService and panics on
// error.
func MustNewRetentionService(opts RetentionServiceOptions) *RetentionService {
	svc, err := NewRetentionService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// RetentionReport describes what one retention pass did, or with DryRun what
// it would have done.
type RetentionReport struct {
	Operation   string                   `json:"operation"`
	DryRun      bool                     `json:"dry_run"`
	Buckets     []model.MonthlyAggregate `json:"buckets,omitempty"`
	Expiring    []model.WeeklySnapshot   `json:"expiring,omitempty"`
	Expired     []model.WeeklySnapshot   `json:"expired,omitempty"`
	RowsRemoved int                      `json:"rows_removed"`
	Failures    int                      `json:"failures"`
}

// CompressTickets collapses full-resolution rows older than the compression
// threshold into monthly aggregates, one (year, month, partner) bucket at a
// time. Rows lacking a partner id fall into the null-partner bucket, never
// dropped. With dryRun the full bucket set is computed and reported with no
// mutation. Re-running over already-compressed data finds zero eligible rows.
func (s *RetentionService) CompressTickets(ctx context.Context, dryRun bool) (*RetentionReport, error) {
	now := s.timeProvider.Now()
	cutoff := now.AddDate(0, -s.compressAfterMonths, 0)

	buckets, err := s.tickets.CompressionBuckets(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list compression buckets: %w", err)
	}

	report := &RetentionReport{Operation: "compress_tickets", DryRun: dryRun, Buckets: buckets}
	if dryRun {
		for _, b := range buckets {
			report.RowsRemoved += b.CompressedFromCount
		}
		s.logPass(ctx, report, cutoff)
		return report, nil
	}

	var errs []error
	for _, bucket := range buckets {
		audit := model.RetentionAuditEntry{
			ID:       newAuditID(now),
			Action:   model.RetentionActionTicketsCompressed,
			TargetID: bucketTargetID(bucket),
			RowCount: bucket.CompressedFromCount,
			Justification: fmt.Sprintf(
				"tickets older than %d months compressed into monthly aggregate %s",
				s.compressAfterMonths, bucketTargetID(bucket)),
			CreatedAt: now,
		}

		removed, err := s.tickets.CompressBucket(ctx, cutoff, bucket, audit)
		if err != nil {
			report.Failures++
			errs = append(errs, fmt.Errorf("compress bucket %s: %w", bucketTargetID(bucket), err))
			s.mirrorAudit(ctx, audit, err)
			continue
		}
		report.RowsRemoved += removed
	}

	metrics.EmitRetention(s.metrics, report.Operation, dryRun, report.RowsRemoved, errors.Join(errs...))
	s.logPass(ctx, report, cutoff)
	return report, errors.Join(errs...)
}

// PurgeAggregates deletes monthly aggregates whose bucket month ended more
// than the purge threshold ago.
func (s *RetentionService) PurgeAggregates(ctx context.Context, dryRun bool) (*RetentionReport, error) {
	now := s.timeProvider.Now()
	cutoff := now.AddDate(0, -s.purgeAfterMonths, 0)

	aggregates, err := s.aggregates.ListOlderThan(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list aged aggregates: %w", err)
	}

	report := &RetentionReport{Operation: "purge_aggregates", DryRun: dryRun, Buckets: aggregates}
	if dryRun {
		report.RowsRemoved = len(aggregates)
		s.logPass(ctx, report, cutoff)
		return report, nil
	}

	var errs []error
	for _, agg := range aggregates {
		audit := model.RetentionAuditEntry{
			ID:       newAuditID(now),
			Action:   model.RetentionActionAggregatePurged,
			TargetID: bucketTargetID(agg),
			RowCount: 1,
			Justification: fmt.Sprintf(
				"monthly aggregate older than %d months purged", s.purgeAfterMonths),
			CreatedAt: now,
		}

		deleted, err := s.aggregates.DeleteWithAudit(ctx, agg.Key(), audit)
		if err != nil {
			report.Failures++
			errs = append(errs, fmt.Errorf("purge aggregate %s: %w", bucketTargetID(agg), err))
			s.mirrorAudit(ctx, audit, err)
			continue
		}
		if deleted {
			report.RowsRemoved++
		}
	}

	metrics.EmitRetention(s.metrics, report.Operation, dryRun, report.RowsRemoved, errors.Join(errs...))
	s.logPass(ctx, report, cutoff)
	return report, errors.Join(errs...)
}

// ScanSnapshots runs the independent snapshot-expiry scan. Snapshots past the
// notification threshold but not yet expired are surfaced in the report for
// alerting; snapshots past their stored expiry, or past the hard age
// threshold plus the grace period, are deleted (audit-paired). dryRun reports
// both sets without deleting.
func (s *RetentionService) ScanSnapshots(ctx context.Context, dryRun bool) (*RetentionReport, error) {
	now := s.timeProvider.Now()
	notifyBefore := now.AddDate(0, -s.notifyAfterMonths, 0)
	hardCutoff := now.AddDate(0, -s.hardExpiryMonths, 0).Add(-s.gracePeriod)

	expiring, err := s.snapshots.ListExpiring(ctx, notifyBefore, now)
	if err != nil {
		return nil, fmt.Errorf("list expiring snapshots: %w", err)
	}
	expired, err := s.snapshots.ListExpired(ctx, now, hardCutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired snapshots: %w", err)
	}

	// A snapshot past the hard age cutoff can match both queries in one
	// pass. It is deleted, not warned about.
	expiredIDs := make(map[string]struct{}, len(expired))
	for _, snap := range expired {
		expiredIDs[snap.ID] = struct{}{}
	}
	notifiable := make([]model.WeeklySnapshot, 0, len(expiring))
	for _, snap := range expiring {
		if _, gone := expiredIDs[snap.ID]; gone {
			continue
		}
		notifiable = append(notifiable, snap)
	}
	expiring = notifiable

	report := &RetentionReport{
		Operation: "scan_snapshots",
		DryRun:    dryRun,
		Expiring:  expiring,
		Expired:   expired,
	}

	for _, snap := range expiring {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "snapshot expiring soon",
				"snapshot_id", snap.ID, "expires_at", snap.ExpiresAt.Format(time.RFC3339))
		}
	}

	if dryRun {
		report.RowsRemoved = len(expired)
		s.logPass(ctx, report, hardCutoff)
		return report, nil
	}

	var errs []error
	for _, snap := range expired {
		audit := model.RetentionAuditEntry{
			ID:       newAuditID(now),
			Action:   model.RetentionActionSnapshotDeleted,
			TargetID: snap.ID,
			RowCount: 1,
			Justification: fmt.Sprintf(
				"snapshot expired at %s (retention %d months + %s grace)",
				snap.ExpiresAt.Format(time.RFC3339), s.hardExpiryMonths, s.gracePeriod),
			CreatedAt: now,
		}

		deleted, err := s.snapshots.DeleteWithAudit(ctx, snap.ID, audit)
		if err != nil {
			report.Failures++
			errs = append(errs, fmt.Errorf("delete snapshot %s: %w", snap.ID, err))
			s.mirrorAudit(ctx, audit, err)
			continue
		}
		if deleted {
			report.RowsRemoved++
		}
	}

	metrics.EmitRetention(s.metrics, report.Operation, dryRun, report.RowsRemoved, errors.Join(errs...))
	s.logPass(ctx, report, hardCutoff)
	return report, errors.Join(errs...)
}

// mirrorAudit writes the entry to the durable fallback sink after a primary
// audit failure. The paired transaction already rolled back, so the mirror
// records the attempt; losing the mirror too is logged, never fatal.
func (s *RetentionService) mirrorAudit(ctx context.Context, entry model.RetentionAuditEntry, cause error) {
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "retention action failed, mirroring audit entry to fallback sink",
			"action", entry.Action, "target_id", entry.TargetID, "error", cause)
	}
	if s.fallback == nil {
		return
	}
	if err := s.fallback.Append(ctx, entry); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit fallback sink write failed",
			"action", entry.Action, "target_id", entry.TargetID, "error", err)
	}
}

func (s *RetentionService) logPass(ctx context.Context, report *RetentionReport, cutoff time.Time) {
	if s.logger == nil {
		return
	}
	s.logger.InfoContext(ctx, "retention pass finished",
		"operation", report.Operation,
		"dry_run", report.DryRun,
		"cutoff", cutoff.Format(time.RFC3339),
		"rows_removed", report.RowsRemoved,
		"failures", report.Failures)
}

// newAuditID returns a sortable unique id for an audit row.
func newAuditID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

// bucketTargetID renders a (year, month, partner) bucket as an audit target.
func bucketTargetID(agg model.MonthlyAggregate) string {
	partner := "none"
	if agg.PartnerID != nil {
		partner = *agg.PartnerID
	}
	return fmt.Sprintf("%04d-%02d/%s", agg.Year, agg.Month, partner)
}
