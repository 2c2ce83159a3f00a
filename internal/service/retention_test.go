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

type retentionHarness struct {
	svc        *RetentionService
	tickets    *fakeTicketRepo
	aggregates *fakeAggregateRepo
	snapshots  *fakeSnapshotRepo
	fallback   *fakeFallbackSink
	clock      *data.FixedTimeProvider
}

func newRetentionHarness(t *testing.T, now time.Time) *retentionHarness {
	t.Helper()
	h := &retentionHarness{
		tickets:    newFakeTicketRepo(),
		aggregates: newFakeAggregateRepo(),
		snapshots:  newFakeSnapshotRepo(),
		fallback:   &fakeFallbackSink{},
		clock:      data.NewFixedTimeProvider(now),
	}
	h.svc = MustNewRetentionService(RetentionServiceOptions{
		Tickets:      h.tickets,
		Aggregates:   h.aggregates,
		Snapshots:    h.snapshots,
		Fallback:     h.fallback,
		TimeProvider: h.clock,
	})
	return h
}

func strptr(s string) *string { return &s }

func TestCompressTickets(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	t.Run("14-month-old data-loss ticket for one partner", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		created := now.AddDate(0, -14, 0)
		ticket := makeTicket(1, "g", model.TicketStatusResolved, created, 4, "data-loss")
		ticket.PartnerID = strptr("P")
		h.tickets.tickets[1] = ticket

		report, err := h.svc.CompressTickets(ctx, false)
		require.NoError(t, err)

		require.Len(t, report.Buckets, 1)
		bucket := report.Buckets[0]
		assert.Equal(t, created.Year(), bucket.Year)
		assert.Equal(t, int(created.Month()), bucket.Month)
		require.NotNil(t, bucket.PartnerID)
		assert.Equal(t, "P", *bucket.PartnerID)
		assert.Equal(t, 1, bucket.TotalTickets)
		assert.Equal(t, 1, bucket.DataLossTickets)

		count, _ := h.tickets.Count(ctx)
		assert.Zero(t, count, "no matching full-resolution rows remain")
	})

	t.Run("compression completeness", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		old := now.AddDate(0, -14, 0)
		older := now.AddDate(0, -20, 0)
		recent := now.AddDate(0, -2, 0)

		withPartner := makeTicket(1, "g", model.TicketStatusResolved, old, 1)
		withPartner.PartnerID = strptr("P")
		h.tickets.tickets[1] = withPartner
		h.tickets.tickets[2] = makeTicket(2, "g", model.TicketStatusOpen, old, 0)
		h.tickets.tickets[3] = makeTicket(3, "g", model.TicketStatusOpen, older, 0)
		h.tickets.tickets[4] = makeTicket(4, "g", model.TicketStatusOpen, recent, 0)

		before, _ := h.tickets.Count(ctx)
		report, err := h.svc.CompressTickets(ctx, false)
		require.NoError(t, err)
		after, _ := h.tickets.Count(ctx)

		sum := 0
		for _, b := range report.Buckets {
			sum += b.CompressedFromCount
		}
		assert.Equal(t, before-after, sum, "sum of compressedFromCount equals rows removed")
		assert.Equal(t, sum, report.RowsRemoved)
		assert.Equal(t, 1, after, "recent rows untouched")
	})

	t.Run("null-partner rows fall into their own bucket", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		old := now.AddDate(0, -14, 0)
		withPartner := makeTicket(1, "g", model.TicketStatusOpen, old, 0)
		withPartner.PartnerID = strptr("P")
		h.tickets.tickets[1] = withPartner
		h.tickets.tickets[2] = makeTicket(2, "g", model.TicketStatusOpen, old, 0)

		report, err := h.svc.CompressTickets(ctx, false)
		require.NoError(t, err)
		require.Len(t, report.Buckets, 2)
	})

	t.Run("every compressed batch has exactly one audit row", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		h.tickets.tickets[1] = makeTicket(1, "g", model.TicketStatusOpen, now.AddDate(0, -14, 0), 0)
		h.tickets.tickets[2] = makeTicket(2, "g", model.TicketStatusOpen, now.AddDate(0, -20, 0), 0)

		report, err := h.svc.CompressTickets(ctx, false)
		require.NoError(t, err)

		require.Len(t, h.tickets.audits, len(report.Buckets))
		for i, audit := range h.tickets.audits {
			assert.Equal(t, model.RetentionActionTicketsCompressed, audit.Action)
			assert.Equal(t, bucketTargetID(report.Buckets[i]), audit.TargetID)
			assert.NotEmpty(t, audit.Justification)
			assert.NoError(t, audit.Validate())
		}
	})

	t.Run("dry run reports without mutating", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		h.tickets.tickets[1] = makeTicket(1, "g", model.TicketStatusOpen, now.AddDate(0, -14, 0), 0)

		report, err := h.svc.CompressTickets(ctx, true)
		require.NoError(t, err)
		assert.True(t, report.DryRun)
		assert.Equal(t, 1, report.RowsRemoved)
		require.Len(t, report.Buckets, 1)

		count, _ := h.tickets.Count(ctx)
		assert.Equal(t, 1, count, "dry run deletes nothing")
		assert.Empty(t, h.tickets.audits, "dry run writes no audit rows")

		// Safely repeatable.
		again, err := h.svc.CompressTickets(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, report.RowsRemoved, again.RowsRemoved)
	})

	t.Run("re-running finds zero eligible rows", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		h.tickets.tickets[1] = makeTicket(1, "g", model.TicketStatusOpen, now.AddDate(0, -14, 0), 0)

		_, err := h.svc.CompressTickets(ctx, false)
		require.NoError(t, err)

		report, err := h.svc.CompressTickets(ctx, false)
		require.NoError(t, err)
		assert.Empty(t, report.Buckets)
		assert.Zero(t, report.RowsRemoved)
	})

	t.Run("bucket failure mirrors the audit entry to the fallback sink", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		h.tickets.tickets[1] = makeTicket(1, "g", model.TicketStatusOpen, now.AddDate(0, -14, 0), 0)
		h.tickets.compressErr = assert.AnError

		report, err := h.svc.CompressTickets(ctx, false)
		require.Error(t, err)
		assert.Equal(t, 1, report.Failures)
		require.Len(t, h.fallback.entries, 1)
		assert.Equal(t, model.RetentionActionTicketsCompressed, h.fallback.entries[0].Action)

		count, _ := h.tickets.Count(ctx)
		assert.Equal(t, 1, count, "failed bucket rows stay in place")
	})
}

func TestPurgeAggregates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	t.Run("purges aggregates past the threshold with audit rows", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		oldBucket := now.AddDate(0, -40, 0)
		youngBucket := now.AddDate(0, -20, 0)
		require.NoError(t, h.aggregates.Upsert(ctx, model.MonthlyAggregate{
			Year: oldBucket.Year(), Month: int(oldBucket.Month()), TotalTickets: 5, CompressedFromCount: 5,
		}))
		require.NoError(t, h.aggregates.Upsert(ctx, model.MonthlyAggregate{
			Year: youngBucket.Year(), Month: int(youngBucket.Month()), TotalTickets: 3, CompressedFromCount: 3,
		}))

		report, err := h.svc.PurgeAggregates(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.RowsRemoved)

		remaining, err := h.aggregates.List(ctx, 100, 0)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, youngBucket.Year(), remaining[0].Year)

		require.Len(t, h.aggregates.audits, 1)
		assert.Equal(t, model.RetentionActionAggregatePurged, h.aggregates.audits[0].Action)
		assert.NoError(t, h.aggregates.audits[0].Validate())
	})

	t.Run("dry run reports eligible aggregates without deleting", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		oldBucket := now.AddDate(0, -40, 0)
		require.NoError(t, h.aggregates.Upsert(ctx, model.MonthlyAggregate{
			Year: oldBucket.Year(), Month: int(oldBucket.Month()), TotalTickets: 5,
		}))

		report, err := h.svc.PurgeAggregates(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 1, report.RowsRemoved)

		remaining, err := h.aggregates.List(ctx, 100, 0)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
		assert.Empty(t, h.aggregates.audits)
	})
}

func TestScanSnapshots(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	seedSnapshot := func(h *retentionHarness, id string, created time.Time) {
		h.snapshots.snapshots[id] = storedSnapshot{snap: model.WeeklySnapshot{
			ID:        id,
			CreatedAt: created,
			ExpiresAt: created.AddDate(0, 13, 0),
		}}
	}

	t.Run("classifies expiring and expired snapshots", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		seedSnapshot(h, "wk_fresh", now.AddDate(0, -2, 0))                   // untouched
		seedSnapshot(h, "wk_expiring", now.AddDate(0, -12, -3))              // past notification threshold, not expired
		seedSnapshot(h, "wk_expired", now.AddDate(0, -14, 0))                // past expires_at

		report, err := h.svc.ScanSnapshots(ctx, false)
		require.NoError(t, err)

		require.Len(t, report.Expiring, 1)
		assert.Equal(t, "wk_expiring", report.Expiring[0].ID)
		require.Len(t, report.Expired, 1)
		assert.Equal(t, "wk_expired", report.Expired[0].ID)
		assert.Equal(t, 1, report.RowsRemoved)

		_, exists := h.snapshots.snapshots["wk_expired"]
		assert.False(t, exists)
		_, exists = h.snapshots.snapshots["wk_expiring"]
		assert.True(t, exists, "expiring snapshots are only surfaced, not deleted")

		require.Len(t, h.snapshots.audits, 1)
		audit := h.snapshots.audits[0]
		assert.Equal(t, model.RetentionActionSnapshotDeleted, audit.Action)
		assert.Equal(t, "wk_expired", audit.TargetID)
		assert.NoError(t, audit.Validate())
	})

	t.Run("hard-expired snapshot with a future expires_at is deleted, not warned", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		// Past the hard age cutoff, yet its stored expiry is still ahead,
		// so it matches both the expiring and the expired queries.
		h.snapshots.snapshots["wk_overdue"] = storedSnapshot{snap: model.WeeklySnapshot{
			ID:        "wk_overdue",
			CreatedAt: now.AddDate(0, -14, 0),
			ExpiresAt: now.AddDate(0, 1, 0),
		}}

		report, err := h.svc.ScanSnapshots(ctx, false)
		require.NoError(t, err)

		assert.Empty(t, report.Expiring, "a snapshot queued for deletion must not also be warned about")
		require.Len(t, report.Expired, 1)
		assert.Equal(t, "wk_overdue", report.Expired[0].ID)

		_, exists := h.snapshots.snapshots["wk_overdue"]
		assert.False(t, exists)
		require.Len(t, h.snapshots.audits, 1)
		assert.Equal(t, "wk_overdue", h.snapshots.audits[0].TargetID)
	})

	t.Run("dry run deletes nothing", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		seedSnapshot(h, "wk_expired", now.AddDate(0, -14, 0))

		report, err := h.svc.ScanSnapshots(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 1, report.RowsRemoved)
		assert.Len(t, h.snapshots.snapshots, 1)
		assert.Empty(t, h.snapshots.audits)
	})

	t.Run("delete failure mirrors audit entry and continues", func(t *testing.T) {
		h := newRetentionHarness(t, now)
		seedSnapshot(h, "wk_expired", now.AddDate(0, -14, 0))
		h.snapshots.deleteErr = assert.AnError

		report, err := h.svc.ScanSnapshots(ctx, false)
		require.Error(t, err)
		assert.Equal(t, 1, report.Failures)
		require.Len(t, h.fallback.entries, 1)
		assert.Equal(t, "wk_expired", h.fallback.entries[0].TargetID)
	})
}
