// Package scheduler runs the pipeline and retention jobs on fixed cron
// schedules evaluated in one configured IANA timezone.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deskmetrics/deskmetrics/internal/domain/model"
	"github.com/deskmetrics/deskmetrics/internal/service"
)

// cronParser supports standard 5-field cron expressions and descriptors like
// @hourly.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// RunnerOptions groups dependencies for Runner.
type RunnerOptions struct {
	Coordinator *service.CoordinatorService // Required
	Retention   *service.RetentionService   // Required

	Timezone         string // Optional: IANA name, defaults to UTC
	PipelineSchedule string // Optional: cron expression for the weekly pipeline
	CompressSchedule string // Optional: cron expression for ticket compression
	PurgeSchedule    string // Optional: cron expression for aggregate purge
	ScanSchedule     string // Optional: cron expression for the snapshot scan

	// StartupJitter delays the first retention pass by a random slice of this
	// window so a fleet restart does not stampede the database.
	StartupJitter time.Duration

	Logger *slog.Logger
}

// Runner owns the cron instance. The cron library fires each job on its own
// goroutine, so a slow run never blocks the scheduler itself; overlap
// protection is the coordinator's single-flight guard, not the scheduler.
type Runner struct {
	coordinator *service.CoordinatorService
	retention   *service.RetentionService
	logger      *slog.Logger

	timezone         string
	pipelineSchedule string
	compressSchedule string
	purgeSchedule    string
	scanSchedule     string
	startupJitter    time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewRunner constructs a new Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Coordinator == nil {
		return nil, errors.New("CoordinatorService is required")
	}
	if opts.Retention == nil {
		return nil, errors.New("RetentionService is required")
	}
	if opts.Timezone == "" {
		opts.Timezone = "UTC"
	}
	if opts.PipelineSchedule == "" {
		opts.PipelineSchedule = "0 6 * * 1" // Mondays 06:00
	}
	if opts.CompressSchedule == "" {
		opts.CompressSchedule = "0 2 1 * *" // first of the month, 02:00
	}
	if opts.PurgeSchedule == "" {
		opts.PurgeSchedule = "30 2 1 * *"
	}
	if opts.ScanSchedule == "" {
		opts.ScanSchedule = "0 3 * * *" // daily 03:00
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "scheduler")
	}

	return &Runner{
		coordinator:      opts.Coordinator,
		retention:        opts.Retention,
		logger:           logger,
		timezone:         opts.Timezone,
		pipelineSchedule: opts.PipelineSchedule,
		compressSchedule: opts.CompressSchedule,
		purgeSchedule:    opts.PurgeSchedule,
		scanSchedule:     opts.ScanSchedule,
		startupJitter:    opts.StartupJitter,
	}, nil
}

// Start validates the schedules and begins firing them. Idempotent: a second
// Start while running is a no-op.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	loc, err := time.LoadLocation(r.timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", r.timezone, err)
	}

	c := cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	jobs := []struct {
		name     string
		schedule string
		fire     func()
	}{
		{"pipeline", r.pipelineSchedule, func() { r.firePipeline(ctx) }},
		{"compress_tickets", r.compressSchedule, func() {
			r.fireRetention(ctx, "compress_tickets", r.retention.CompressTickets)
		}},
		{"purge_aggregates", r.purgeSchedule, func() {
			r.fireRetention(ctx, "purge_aggregates", r.retention.PurgeAggregates)
		}},
		{"scan_snapshots", r.scanSchedule, func() {
			r.fireRetention(ctx, "scan_snapshots", r.retention.ScanSnapshots)
		}},
	}
	for _, job := range jobs {
		if _, err := c.AddFunc(job.schedule, job.fire); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.name, job.schedule, err)
		}
	}

	c.Start()
	r.cron = c
	r.running = true

	if r.logger != nil {
		r.logger.InfoContext(ctx, "scheduler started",
			"timezone", r.timezone,
			"pipeline", r.pipelineSchedule,
			"compress", r.compressSchedule,
			"purge", r.purgeSchedule,
			"scan", r.scanSchedule)
	}
	return nil
}

// Stop halts the schedule and waits for in-flight jobs to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.running = false
	r.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	if r.logger != nil {
		r.logger.Info("scheduler stopped")
	}
}

// IsRunning reports whether the schedule is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// TriggerNow fires a manual pipeline run, bypassing the schedule. The
// single-flight guard still applies: a run in flight yields AlreadyRunning.
func (r *Runner) TriggerNow(ctx context.Context, force bool) (*service.RunSummary, error) {
	return r.coordinator.Trigger(ctx, model.TriggerManual, force)
}

func (r *Runner) firePipeline(ctx context.Context) {
	if _, err := r.coordinator.Trigger(ctx, model.TriggerScheduled, false); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "scheduled pipeline run failed", "error", err)
		}
	}
}

func (r *Runner) fireRetention(
	ctx context.Context,
	name string,
	pass func(context.Context, bool) (*service.RetentionReport, error),
) {
	if r.startupJitter > 0 {
		delay := time.Duration(rand.Int63n(int64(r.startupJitter)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	if _, err := pass(ctx, false); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "scheduled retention pass failed",
				"operation", name, "error", err)
		}
	}
}
