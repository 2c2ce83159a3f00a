package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deskmetrics/deskmetrics/internal/core"
	"github.com/deskmetrics/deskmetrics/internal/data"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
)

// DefaultSnapshotRetentionMonths is the snapshot retention window; ExpiresAt
// is stamped at write time as CreatedAt plus this many months.
const DefaultSnapshotRetentionMonths = 13

// SnapshotServiceOptions groups dependencies for SnapshotService.
type SnapshotServiceOptions struct {
	Repo            core.SnapshotRepository // Required: snapshot repository
	RetentionMonths int                     // Optional: defaults to DefaultSnapshotRetentionMonths
	TimeProvider    data.TimeProvider       // Optional: defaults to real time
	Logger          *slog.Logger            // Optional: structured logger
}

// SnapshotService persists one reporting period's computed metrics as an
// idempotent, transactional snapshot write.
type SnapshotService struct {
	repo            core.SnapshotRepository
	retentionMonths int
	timeProvider    data.TimeProvider
	logger          *slog.Logger
}

// NewSnapshotService constructs a new SnapshotService.
func NewSnapshotService(opts SnapshotServiceOptions) (*SnapshotService, error) {
	if opts.Repo == nil {
		return nil, errors.New("SnapshotRepository is required")
	}
	if opts.RetentionMonths <= 0 {
		opts.RetentionMonths = DefaultSnapshotRetentionMonths
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "snapshot_service")
	}

	return &SnapshotService{
		repo:            opts.Repo,
		retentionMonths: opts.RetentionMonths,
		timeProvider:    opts.TimeProvider,
		logger:          logger,
	}, nil
}

// MustNewSnapshotService constructs a new SnapshotService and panics on error.
func MustNewSnapshotService(opts SnapshotServiceOptions) *SnapshotService {
	svc, err := NewSnapshotService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// Write persists the period's snapshot under its deterministic id. When a
// snapshot with that id already exists and force is false, nothing is written
// and the result reports already_exists. With force, the prior version and its
// children are replaced in one transaction so no duplicates or orphans remain.
func (s *SnapshotService) Write(
	ctx context.Context,
	metrics *model.WeeklyMetrics,
	rawRows []model.Ticket,
	force bool,
) (model.SnapshotWriteResult, *model.WeeklySnapshot, error) {
	if metrics == nil {
		return "", nil, errors.New("metrics are required")
	}

	id := model.SnapshotIDFor(metrics.PeriodEnd)
	now := s.timeProvider.Now()

	snap := model.WeeklySnapshot{
		ID:              id,
		PeriodStart:     metrics.PeriodStart,
		PeriodEnd:       metrics.PeriodEnd,
		TotalTickets:    metrics.TotalTickets,
		OpenTickets:     metrics.OpenTickets,
		ResolvedTickets: metrics.ResolvedTickets,
		DataLossTickets: metrics.DataLossTickets,
		CreatedAt:       now,
		ExpiresAt:       now.AddDate(0, s.retentionMonths, 0),
	}

	stats := make([]model.GroupResolutionStat, len(metrics.GroupStats))
	copy(stats, metrics.GroupStats)
	for i := range stats {
		stats[i].SnapshotID = id
	}

	raw := make([]model.SnapshotTicket, 0, len(rawRows))
	for i := range rawRows {
		t := &rawRows[i]
		raw = append(raw, model.SnapshotTicket{
			SnapshotID: id,
			ExternalID: t.ExternalID,
			Status:     t.Status,
			GroupName:  t.GroupName,
			PartnerID:  t.PartnerID,
			Tags:       t.Tags,
			CreatedAt:  t.CreatedAt,
			UpdatedAt:  t.UpdatedAt,
		})
	}

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return "", nil, fmt.Errorf("check snapshot existence: %w", err)
	}

	switch {
	case exists && !force:
		if s.logger != nil {
			s.logger.InfoContext(ctx, "snapshot already exists, skipping write", "snapshot_id", id)
		}
		return model.SnapshotAlreadyExists, nil, nil

	case exists:
		if err := s.repo.Replace(ctx, snap, stats, raw); err != nil {
			return "", nil, fmt.Errorf("replace snapshot %s: %w", id, err)
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "snapshot force-overwritten",
				"snapshot_id", id, "raw_rows", len(raw))
		}
		return model.SnapshotOverwritten, &snap, nil

	default:
		if err := s.repo.Insert(ctx, snap, stats, raw); err != nil {
			return "", nil, fmt.Errorf("insert snapshot %s: %w", id, err)
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "snapshot written",
				"snapshot_id", id, "total_tickets", snap.TotalTickets, "raw_rows", len(raw))
		}
		return model.SnapshotWritten, &snap, nil
	}
}

// Get returns one snapshot by id.
func (s *SnapshotService) Get(ctx context.Context, id string) (*model.WeeklySnapshot, error) {
	return s.repo.GetByID(ctx, id)
}
