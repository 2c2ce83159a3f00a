package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmetrics/deskmetrics/internal/data"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
)

type syncHarness struct {
	svc     *SyncService
	client  *fakeHelpdeskClient
	tickets *fakeTicketRepo
	cache   *fakeCache
	config  *fakeConfigRepo
	clock   *data.FixedTimeProvider
}

func newSyncHarness(t *testing.T, now time.Time) *syncHarness {
	t.Helper()
	h := &syncHarness{
		client:  &fakeHelpdeskClient{},
		tickets: newFakeTicketRepo(),
		cache:   newFakeCache(),
		config:  newFakeConfigRepo(),
		clock:   data.NewFixedTimeProvider(now),
	}
	store, err := NewConfigStoreService(ConfigStoreServiceOptions{
		Repo:         h.config,
		TimeProvider: h.clock,
	})
	require.NoError(t, err)

	h.svc, err = NewSyncService(SyncServiceOptions{
		Client:       h.client,
		Tickets:      h.tickets,
		ConfigStore:  store,
		Cache:        h.cache,
		TimeProvider: h.clock,
	})
	require.NoError(t, err)
	return h
}

func (h *syncHarness) cursor(t *testing.T) time.Time {
	t.Helper()
	entry, ok := h.config.entries[ConfigKeySyncCursor]
	require.True(t, ok, "cursor must be persisted")
	parsed, err := time.Parse(time.RFC3339Nano, entry.Value)
	require.NoError(t, err)
	return parsed
}

func TestSyncPlan(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	t.Run("no cursor means full sync", func(t *testing.T) {
		h := newSyncHarness(t, now)
		plan, err := h.svc.Plan(ctx)
		require.NoError(t, err)
		assert.True(t, plan.IsFull())
	})

	t.Run("cursor present means incremental", func(t *testing.T) {
		h := newSyncHarness(t, now)
		since := now.Add(-24 * time.Hour)
		_, err := h.config.Set(ctx, ConfigKeySyncCursor, since.Format(time.RFC3339Nano), false)
		require.NoError(t, err)

		plan, err := h.svc.Plan(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.SyncModeIncremental, plan.Mode)
		assert.True(t, plan.Since.Equal(since))
	})

	t.Run("unparseable cursor falls back to full", func(t *testing.T) {
		h := newSyncHarness(t, now)
		_, err := h.config.Set(ctx, ConfigKeySyncCursor, "not-a-timestamp", false)
		require.NoError(t, err)

		plan, err := h.svc.Plan(ctx)
		require.NoError(t, err)
		assert.True(t, plan.IsFull())
	})
}

func TestSyncRun(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	created := now.Add(-48 * time.Hour)

	t.Run("cursor advances to the run start time, not completion", func(t *testing.T) {
		h := newSyncHarness(t, now)
		h.client.allTickets = []model.Ticket{
			makeTicket(1, "g", model.TicketStatusOpen, created, 0),
		}

		result, err := h.svc.Run(ctx)
		require.NoError(t, err)
		assert.True(t, result.Plan.IsFull())
		assert.Equal(t, 1, result.TicketsFetched)
		assert.Equal(t, 1, result.TicketsUpserted)

		assert.True(t, h.cursor(t).Equal(now), "cursor equals the run start time")
	})

	t.Run("cursor is monotonic across successive runs", func(t *testing.T) {
		h := newSyncHarness(t, now)

		_, err := h.svc.Run(ctx)
		require.NoError(t, err)
		first := h.cursor(t)

		h.clock.AddTime(time.Hour)
		_, err = h.svc.Run(ctx)
		require.NoError(t, err)
		second := h.cursor(t)

		assert.False(t, second.Before(first))
		assert.True(t, second.Equal(now.Add(time.Hour)))

		// The second run went incremental from the first run's start.
		require.Len(t, h.client.sinceSeen, 1)
		assert.True(t, h.client.sinceSeen[0].Equal(first))
	})

	t.Run("upserts are chunked into fixed-size batches", func(t *testing.T) {
		h := newSyncHarness(t, now)
		for i := int64(0); i < 250; i++ {
			h.client.allTickets = append(h.client.allTickets,
				makeTicket(i, "g", model.TicketStatusOpen, created, 0))
		}

		result, err := h.svc.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 250, result.TicketsUpserted)
		assert.Equal(t, 3, h.tickets.upsertCalls, "250 rows in batches of 100")
	})

	t.Run("batch failure leaves the cursor unadvanced", func(t *testing.T) {
		h := newSyncHarness(t, now)
		for i := int64(0); i < 250; i++ {
			h.client.allTickets = append(h.client.allTickets,
				makeTicket(i, "g", model.TicketStatusOpen, created, 0))
		}
		h.tickets.upsertErrAt = 2

		_, err := h.svc.Run(ctx)
		require.Error(t, err)

		_, ok := h.config.entries[ConfigKeySyncCursor]
		assert.False(t, ok, "failed run must not advance the cursor")
		// First batch stays committed; the next run re-fetches from scratch.
		count, _ := h.tickets.Count(ctx)
		assert.Equal(t, 100, count)
	})

	t.Run("fetch failure surfaces and leaves cursor unadvanced", func(t *testing.T) {
		h := newSyncHarness(t, now)
		h.client.fetchErr = assert.AnError

		_, err := h.svc.Run(ctx)
		require.Error(t, err)
		_, ok := h.config.entries[ConfigKeySyncCursor]
		assert.False(t, ok)
	})

	t.Run("reference data fetched on full syncs only", func(t *testing.T) {
		h := newSyncHarness(t, now)
		h.client.groups = []model.ReferenceGroup{{ID: 1, Name: "network"}}
		h.client.companies = []model.ReferenceCompany{{ID: 7, Name: "acme"}}

		result, err := h.svc.Run(ctx)
		require.NoError(t, err)
		assert.True(t, result.ReferenceLoaded)

		groups, err := h.svc.CachedReferenceGroups(ctx)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, "network", groups[0].Name)

		// Incremental run: reference data untouched even if the client now fails.
		h.clock.AddTime(time.Hour)
		h.client.refErr = assert.AnError
		result, err = h.svc.Run(ctx)
		require.NoError(t, err)
		assert.False(t, result.ReferenceLoaded)

		groups, err = h.svc.CachedReferenceGroups(ctx)
		require.NoError(t, err)
		assert.Len(t, groups, 1, "cached reference data survives incremental runs")
	})

	t.Run("reference fetch failure does not abort a full sync", func(t *testing.T) {
		h := newSyncHarness(t, now)
		h.client.refErr = assert.AnError
		h.client.allTickets = []model.Ticket{
			makeTicket(1, "g", model.TicketStatusOpen, created, 0),
		}

		result, err := h.svc.Run(ctx)
		require.NoError(t, err)
		assert.False(t, result.ReferenceLoaded)
		assert.True(t, h.cursor(t).Equal(now), "sync completes and advances despite reference failure")
	})

	t.Run("fetched rows are stamped with the sync start", func(t *testing.T) {
		h := newSyncHarness(t, now)
		h.client.allTickets = []model.Ticket{
			makeTicket(9, "g", model.TicketStatusOpen, created, 0),
		}

		_, err := h.svc.Run(ctx)
		require.NoError(t, err)
		assert.True(t, h.tickets.tickets[9].SyncedAt.Equal(now))
	})
}
