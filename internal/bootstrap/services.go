package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/deskmetrics/deskmetrics/config"
	"github.com/deskmetrics/deskmetrics/internal/adapters/helpdesk"
	"github.com/deskmetrics/deskmetrics/internal/adapters/scheduler"
	"github.com/deskmetrics/deskmetrics/internal/core"
	"github.com/deskmetrics/deskmetrics/internal/data"
	"github.com/deskmetrics/deskmetrics/internal/data/cryptoutil"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
	"github.com/deskmetrics/deskmetrics/internal/observability/statsd"
	"github.com/deskmetrics/deskmetrics/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	ConfigStore *service.ConfigStoreService
	Sync        *service.SyncService
	Report      *service.ReportService
	Snapshot    *service.SnapshotService
	Coordinator *service.CoordinatorService
	Retention   *service.RetentionService
	Runner      *scheduler.Runner

	Ledger        core.JobLedger
	AuditLog      core.AuditLog
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	ConfigRepo    *data.ConfigRepo
	TicketRepo    *data.TicketRepo
	SnapshotRepo  *data.SnapshotRepo
	AggregateRepo *data.AggregateRepo
	LedgerRepo    *data.JobLedgerRepo
	AuditRepo     *data.AuditRepo
	CacheRepo     *data.RedisCacheRepo
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient, enc cryptoutil.Encryptor) *serviceRepositories {
	repos := &serviceRepositories{
		ConfigRepo:    data.NewConfigRepo(db, enc),
		TicketRepo:    data.NewTicketRepo(db),
		SnapshotRepo:  data.NewSnapshotRepo(db),
		AggregateRepo: data.NewAggregateRepo(db),
		LedgerRepo:    data.NewJobLedgerRepo(db),
		AuditRepo:     data.NewAuditRepo(db),
	}
	if redisClient != nil {
		repos.CacheRepo = data.NewRedisCacheRepo(redisClient)
	}
	return repos
}

// NewServices wires repositories, services, the helpdesk client, and the
// scheduler from loaded configuration.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps require config")
	}
	if deps.DB == nil {
		return nil, errors.New("service deps require a database")
	}
	cfg := deps.Config
	logger := deps.Logger

	encryptor, err := CreateEncryptor(cfg.ConfigStore, cfg.IsDev, logger)
	if err != nil {
		return nil, err
	}

	repos := buildRepositories(deps.DB, deps.RedisClient, encryptor)
	obs := buildObservability(logger, cfg.Observability)

	// A nil *statsd.Client must stay a nil Sink, or every emit helper would
	// see a non-nil interface.
	var sink statsd.Sink
	if obs.MetricsSink != nil {
		sink = obs.MetricsSink
	}

	configStore, err := service.NewConfigStoreService(service.ConfigStoreServiceOptions{
		Repo:     repos.ConfigRepo,
		CacheTTL: cfg.ConfigStore.CacheTTL,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build config store: %w", err)
	}

	client, err := helpdesk.NewClient(helpdesk.ClientOptions{
		BaseURL:     cfg.Helpdesk.BaseURL,
		ConfigStore: configStore,
		HTTPClient:  &http.Client{Timeout: cfg.Helpdesk.Timeout},
		MaxRetries:  cfg.Helpdesk.MaxRetries,
		BaseBackoff: cfg.Helpdesk.BaseBackoff,
		PageSize:    cfg.Helpdesk.PageSize,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build helpdesk client: %w", err)
	}

	var cache core.CacheRepository
	if repos.CacheRepo != nil {
		cache = repos.CacheRepo
	}

	syncSvc, err := service.NewSyncService(service.SyncServiceOptions{
		Client:      client,
		Tickets:     repos.TicketRepo,
		ConfigStore: configStore,
		Cache:       cache,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build sync service: %w", err)
	}

	reportSvc, err := service.NewReportService(service.ReportServiceOptions{
		Tickets: repos.TicketRepo,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build report service: %w", err)
	}

	snapshotSvc, err := service.NewSnapshotService(service.SnapshotServiceOptions{
		Repo:   repos.SnapshotRepo,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build snapshot service: %w", err)
	}

	coordinator, err := service.NewCoordinatorService(service.CoordinatorServiceOptions{
		Sync:     syncSvc,
		Report:   reportSvc,
		Snapshot: snapshotSvc,
		Ledger:   repos.LedgerRepo,
		Metrics:  sink,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build coordinator: %w", err)
	}

	var fallback service.AuditFallbackSink
	if cfg.Retention.AuditFallbackPath != "" {
		fallback = data.NewFileAuditSink(cfg.Retention.AuditFallbackPath, logger)
	}

	retentionSvc, err := service.NewRetentionService(service.RetentionServiceOptions{
		Tickets:             repos.TicketRepo,
		Aggregates:          repos.AggregateRepo,
		Snapshots:           repos.SnapshotRepo,
		Fallback:            fallback,
		CompressAfterMonths: cfg.Retention.CompressAfterMonths,
		PurgeAfterMonths:    cfg.Retention.PurgeAfterMonths,
		NotifyAfterMonths:   cfg.Retention.NotifyAfterMonths,
		HardExpiryMonths:    cfg.Retention.HardExpiryMonths,
		GracePeriod:         cfg.Retention.GracePeriod,
		Metrics:             sink,
		Logger:              logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build retention service: %w", err)
	}

	runner, err := scheduler.NewRunner(scheduler.RunnerOptions{
		Coordinator:      coordinator,
		Retention:        retentionSvc,
		Timezone:         cfg.Pipeline.Timezone,
		PipelineSchedule: cfg.Pipeline.PipelineSchedule,
		CompressSchedule: cfg.Pipeline.CompressSchedule,
		PurgeSchedule:    cfg.Pipeline.PurgeSchedule,
		ScanSchedule:     cfg.Pipeline.ScanSchedule,
		StartupJitter:    cfg.Pipeline.StartupJitter,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	return &ServiceContainer{
		ConfigStore:   configStore,
		Sync:          syncSvc,
		Report:        reportSvc,
		Snapshot:      snapshotSvc,
		Coordinator:   coordinator,
		Retention:     retentionSvc,
		Runner:        runner,
		Ledger:        repos.LedgerRepo,
		AuditLog:      repos.AuditRepo,
		Observability: obs,
	}, nil
}

// ServiceOrchestrationConfig contains dependencies for the service lifecycle.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received, every one-shot
// service finishes, or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeScheduler] {
		runner := cfg.Services.Runner
		g.Go(func() error {
			if startErr := runner.Start(gctx); startErr != nil {
				return fmt.Errorf("start scheduler: %w", startErr)
			}
			<-gctx.Done()
			logger.Info("stopping scheduler...")
			runner.Stop()
			return nil
		})
	}

	if enabled[config.ServiceModePipelineOnce] {
		coordinator := cfg.Services.Coordinator
		g.Go(func() error {
			summary, runErr := coordinator.Trigger(gctx, model.TriggerManual, false)
			if runErr != nil {
				return fmt.Errorf("one-shot pipeline run: %w", runErr)
			}
			snapshotID := ""
			if summary.SnapshotID != nil {
				snapshotID = *summary.SnapshotID
			}
			logger.InfoContext(gctx, "one-shot pipeline run finished",
				"job_id", summary.JobID,
				"snapshot_id", snapshotID,
				"duration", summary.Duration)
			return nil
		})
	}

	if enabled[config.ServiceModeRetentionOnce] {
		retention := cfg.Services.Retention
		g.Go(func() error {
			return runRetentionPasses(gctx, retention, logger, false)
		})
	}

	if enabled[config.ServiceModeRetentionDryRun] {
		retention := cfg.Services.Retention
		g.Go(func() error {
			return runRetentionPasses(gctx, retention, logger, true)
		})
	}

	return g.Wait()
}

// runRetentionPasses runs the three retention passes in order. With dryRun
// the passes report their candidate sets without mutating anything, so
// operators can review what a live run would remove.
func runRetentionPasses(ctx context.Context, retention *service.RetentionService, logger *slog.Logger, dryRun bool) error {
	passes := []struct {
		name string
		run  func(context.Context, bool) (*service.RetentionReport, error)
	}{
		{"compress_tickets", retention.CompressTickets},
		{"purge_aggregates", retention.PurgeAggregates},
		{"scan_snapshots", retention.ScanSnapshots},
	}
	var errs []error
	for _, pass := range passes {
		report, passErr := pass.run(ctx, dryRun)
		if passErr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pass.name, passErr))
			continue
		}
		logger.InfoContext(ctx, "one-shot retention pass finished",
			"operation", pass.name,
			"dry_run", report.DryRun,
			"rows_removed", report.RowsRemoved)
	}
	return errors.Join(errs...)
}
