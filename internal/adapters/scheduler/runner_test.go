package scheduler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/deskmetrics/deskmetrics/internal/data"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
	"github.com/deskmetrics/deskmetrics/internal/mocks"
	"github.com/deskmetrics/deskmetrics/internal/service"
)

type runnerMocks struct {
	config     *mocks.MockConfigRepository
	tickets    *mocks.MockTicketRepository
	snapshots  *mocks.MockSnapshotRepository
	aggregates *mocks.MockAggregateRepository
	client     *mocks.MockHelpdeskClient
	ledger     *mocks.MockJobLedger
}

// newTestRunner wires a Runner over real services backed by gomock
// repositories. mutate tweaks the options before construction.
func newTestRunner(t *testing.T, mutate func(*RunnerOptions)) (*Runner, *runnerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := &runnerMocks{
		config:     mocks.NewMockConfigRepository(ctrl),
		tickets:    mocks.NewMockTicketRepository(ctrl),
		snapshots:  mocks.NewMockSnapshotRepository(ctrl),
		aggregates: mocks.NewMockAggregateRepository(ctrl),
		client:     mocks.NewMockHelpdeskClient(ctrl),
		ledger:     mocks.NewMockJobLedger(ctrl),
	}

	store := service.MustNewConfigStoreService(service.ConfigStoreServiceOptions{Repo: m.config})
	syncSvc := service.MustNewSyncService(service.SyncServiceOptions{
		Client:      m.client,
		Tickets:     m.tickets,
		ConfigStore: store,
	})
	coordinator := service.MustNewCoordinatorService(service.CoordinatorServiceOptions{
		Sync:     syncSvc,
		Report:   service.MustNewReportService(service.ReportServiceOptions{Tickets: m.tickets}),
		Snapshot: service.MustNewSnapshotService(service.SnapshotServiceOptions{Repo: m.snapshots}),
		Ledger:   m.ledger,
	})
	retention := service.MustNewRetentionService(service.RetentionServiceOptions{
		Tickets:    m.tickets,
		Aggregates: m.aggregates,
		Snapshots:  m.snapshots,
	})

	opts := RunnerOptions{Coordinator: coordinator, Retention: retention}
	if mutate != nil {
		mutate(&opts)
	}
	runner, err := NewRunner(opts)
	require.NoError(t, err)
	return runner, m
}

func TestNewRunnerValidation(t *testing.T) {
	t.Run("missing coordinator", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		retention := service.MustNewRetentionService(service.RetentionServiceOptions{
			Tickets:    mocks.NewMockTicketRepository(ctrl),
			Aggregates: mocks.NewMockAggregateRepository(ctrl),
			Snapshots:  mocks.NewMockSnapshotRepository(ctrl),
		})
		_, err := NewRunner(RunnerOptions{Retention: retention})
		require.ErrorContains(t, err, "CoordinatorService is required")
	})

	t.Run("missing retention", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)
		_, err := NewRunner(RunnerOptions{Coordinator: runner.coordinator})
		require.ErrorContains(t, err, "RetentionService is required")
	})
}

func TestRunnerStartRejectsInvalidTimezone(t *testing.T) {
	runner, _ := newTestRunner(t, func(opts *RunnerOptions) {
		opts.Timezone = "Mars/Olympus_Mons"
	})

	err := runner.Start(context.Background())
	require.ErrorContains(t, err, "load timezone")
	assert.False(t, runner.IsRunning())
}

func TestRunnerStartRejectsInvalidSchedule(t *testing.T) {
	runner, _ := newTestRunner(t, func(opts *RunnerOptions) {
		opts.PipelineSchedule = "every monday at dawn"
	})

	err := runner.Start(context.Background())
	require.ErrorContains(t, err, "schedule pipeline")
	assert.False(t, runner.IsRunning())
}

func TestRunnerStartStopLifecycle(t *testing.T) {
	runner, _ := newTestRunner(t, nil)
	ctx := context.Background()

	require.NoError(t, runner.Start(ctx))
	assert.True(t, runner.IsRunning())

	// Second Start is a no-op, not a second cron instance.
	require.NoError(t, runner.Start(ctx))
	assert.True(t, runner.IsRunning())

	runner.Stop()
	assert.False(t, runner.IsRunning())

	// Stop when already stopped is safe.
	runner.Stop()
	assert.False(t, runner.IsRunning())
}

func TestRunnerTriggerNowRunsPipeline(t *testing.T) {
	runner, m := newTestRunner(t, nil)
	ctx := context.Background()

	// No cursor persisted, so the run plans a full sync.
	m.config.EXPECT().
		Get(gomock.Any(), service.ConfigKeySyncCursor).
		Return(nil, data.ErrConfigNotFound)
	m.client.EXPECT().GetAllTickets(gomock.Any()).Return([]model.Ticket{
		{ExternalID: 101, Subject: "printer on fire", Status: model.TicketStatusOpen, GroupName: "Support"},
	}, nil)
	m.tickets.EXPECT().UpsertBatch(gomock.Any(), gomock.Any()).Return(1, nil)
	m.config.EXPECT().
		Set(gomock.Any(), service.ConfigKeySyncCursor, gomock.Any(), false).
		Return(&model.ConfigEntry{Key: service.ConfigKeySyncCursor}, nil)

	m.tickets.EXPECT().
		ListForPeriod(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Ticket{}, nil)
	m.snapshots.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil)
	m.snapshots.EXPECT().
		Insert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	m.ledger.EXPECT().CreateRunning(gomock.Any(), gomock.Any()).Return(&model.JobExecution{}, nil)
	m.ledger.EXPECT().
		Finalize(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&model.JobExecution{}, nil)

	summary, err := runner.TriggerNow(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, service.TriggerRan, summary.Outcome)
	require.NotNil(t, summary.SnapshotID)
	assert.True(t, strings.HasPrefix(*summary.SnapshotID, "wk_"), "snapshot id %q", *summary.SnapshotID)
	require.NotNil(t, summary.Sync)
	assert.Equal(t, 1, summary.Sync.TicketsFetched)
}
