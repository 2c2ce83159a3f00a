package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/deskmetrics/deskmetrics/internal/core"
	"github.com/deskmetrics/deskmetrics/internal/data"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
	apperrors "github.com/deskmetrics/deskmetrics/internal/errors"
	"github.com/deskmetrics/deskmetrics/internal/observability/metrics"
	"github.com/deskmetrics/deskmetrics/internal/observability/statsd"
)

// TriggerOutcome reports what a trigger call did.
type TriggerOutcome string

const (
	// TriggerRan means the pipeline executed (successfully or not; see Err).
	TriggerRan TriggerOutcome = "ran"
	// TriggerSkipped means a scheduled trigger found a run in flight and
	// backed off without writing a ledger row.
	TriggerSkipped TriggerOutcome = "skipped"
)

// RunSummary is returned from a trigger call.
type RunSummary struct {
	Outcome    TriggerOutcome
	JobID      string
	SnapshotID *string
	Sync       *model.SyncResult
	Duration   time.Duration
}

// runningGuard is the process-wide single-flight guard. The system assumes
// exactly one active process, so no distributed lock.
type runningGuard struct {
	mu      sync.Mutex
	running bool
}

func (g *runningGuard) tryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	return true
}

func (g *runningGuard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = false
}

func (g *runningGuard) isRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// CoordinatorServiceOptions groups dependencies for CoordinatorService.
type CoordinatorServiceOptions struct {
	Sync         *SyncService     // Required
	Report       *ReportService   // Required
	Snapshot     *SnapshotService // Required
	Ledger       core.JobLedger   // Required: execution ledger
	TimeProvider data.TimeProvider
	Metrics      statsd.Sink  // Optional
	Logger       *slog.Logger // Optional
}

// CoordinatorService is the scheduling glue around one pipeline run: it
// enforces single-flight, creates the execution context, records the run in
// the ledger, and guarantees guard release on every exit route.
type CoordinatorService struct {
	sync         *SyncService
	report       *ReportService
	snapshot     *SnapshotService
	ledger       core.JobLedger
	timeProvider data.TimeProvider
	metrics      statsd.Sink
	logger       *slog.Logger

	guard runningGuard
}

// NewCoordinatorService constructs a new CoordinatorService.
func NewCoordinatorService(opts CoordinatorServiceOptions) (*CoordinatorService, error) {
	if opts.Sync == nil {
		return nil, errors.New("SyncService is required")
	}
	if opts.Report == nil {
		return nil, errors.New("ReportService is required")
	}
	if opts.Snapshot == nil {
		return nil, errors.New("SnapshotService is required")
	}
	if opts.Ledger == nil {
		return nil, errors.New("JobLedger is required")
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "coordinator")
	}

	return &CoordinatorService{
		sync:         opts.Sync,
		report:       opts.Report,
		snapshot:     opts.Snapshot,
		ledger:       opts.Ledger,
		timeProvider: opts.TimeProvider,
		metrics:      opts.Metrics,
		logger:       logger,
	}, nil
}

// MustNewCoordinatorService constructs a new CoordinatorService and panics on
// error.
func MustNewCoordinatorService(opts CoordinatorServiceOptions) *CoordinatorService {
	svc, err := NewCoordinatorService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// IsRunning reports whether a pipeline run is currently in flight.
func (s *CoordinatorService) IsRunning() bool {
	return s.guard.isRunning()
}

// Trigger attempts one pipeline run. When a run is already in flight, a
// scheduled trigger logs and returns a skipped summary with no ledger row; a
// manual trigger gets an AlreadyRunning error. The force flag is honored only
// at the snapshot write and only makes sense on manual triggers.
//
// A failed run is recorded and logged, never retried in-process; the next
// scheduled tick re-attempts.
func (s *CoordinatorService) Trigger(
	ctx context.Context,
	source model.TriggerSource,
	force bool,
) (*RunSummary, error) {
	if !s.guard.tryAcquire() {
		if source == model.TriggerScheduled {
			if s.logger != nil {
				s.logger.InfoContext(ctx, "pipeline already running, scheduled trigger skipped")
			}
			return &RunSummary{Outcome: TriggerSkipped}, nil
		}
		return nil, apperrors.AlreadyRunning("a pipeline run is already in progress")
	}
	defer s.guard.release()

	executedAt := s.timeProvider.Now()
	ec := model.NewExecutionContext(source, executedAt, executedAt)

	if _, err := s.ledger.CreateRunning(ctx, ec); err != nil {
		return nil, fmt.Errorf("create ledger row for %s: %w", ec.JobID, err)
	}

	summary := &RunSummary{Outcome: TriggerRan, JobID: ec.JobID}
	runErr := s.runPipeline(ctx, summary, executedAt, force)

	completedAt := s.timeProvider.Now()
	summary.Duration = completedAt.Sub(executedAt)

	completion := model.JobCompletion{
		Status:      model.JobStatusCompleted,
		CompletedAt: completedAt,
		SnapshotID:  summary.SnapshotID,
	}
	if summary.Sync != nil {
		completion.TicketsFetched = summary.Sync.TicketsFetched
		completion.TicketsUpserted = summary.Sync.TicketsUpserted
	}
	result := metrics.ResultSuccess
	if runErr != nil {
		msg := runErr.Error()
		completion.Status = model.JobStatusFailed
		completion.Error = &msg
		result = metrics.ResultError
	}

	if _, err := s.ledger.Finalize(ctx, ec.JobID, completion); err != nil {
		// The run itself already succeeded or failed; a lost finalization is
		// logged, not surfaced over the run's own outcome.
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to finalize ledger row",
				"job_id", ec.JobID, "error", err)
		}
	}

	metrics.EmitPipelineRun(s.metrics, metrics.PipelineRun{
		Source:          string(source),
		Result:          result,
		Duration:        summary.Duration,
		TicketsFetched:  completion.TicketsFetched,
		TicketsUpserted: completion.TicketsUpserted,
	})

	if runErr != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "pipeline run failed",
				"job_id", ec.JobID, "source", source, "error", runErr)
		}
		return summary, runErr
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "pipeline run completed",
			"job_id", ec.JobID,
			"source", source,
			"duration_ms", summary.Duration.Milliseconds(),
			"snapshot_id", deref(summary.SnapshotID))
	}
	return summary, nil
}

// runPipeline executes the sync, report, and snapshot stages in order. A
// panic anywhere inside is
// converted to an error so the guard release and ledger finalization above
// always run; the process itself never crashes on a bad run.
func (s *CoordinatorService) runPipeline(
	ctx context.Context,
	summary *RunSummary,
	executedAt time.Time,
	force bool,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panicked: %v", r)
		}
	}()

	syncResult, err := s.sync.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	summary.Sync = syncResult

	periodStart, periodEnd := reportingPeriod(executedAt)
	weekly, rawRows, err := s.report.ComputeWeekly(ctx, periodStart, periodEnd)
	if err != nil {
		return fmt.Errorf("compute weekly metrics: %w", err)
	}

	writeResult, snap, err := s.snapshot.Write(ctx, weekly, rawRows, force)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if snap != nil {
		summary.SnapshotID = &snap.ID
	} else if writeResult == model.SnapshotAlreadyExists {
		id := model.SnapshotIDFor(periodEnd)
		summary.SnapshotID = &id
	}
	return nil
}

// reportingPeriod returns the seven-day window ending at the start of the
// execution day, UTC. Runs on the same day always target the same snapshot id.
func reportingPeriod(executedAt time.Time) (start, end time.Time) {
	t := executedAt.UTC()
	end = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -7), end
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
