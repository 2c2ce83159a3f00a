package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/deskmetrics/deskmetrics/internal/data"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
	apperrors "github.com/deskmetrics/deskmetrics/internal/errors"
)

// In-memory fakes shared by the service tests. They implement the core ports
// with just enough semantics to exercise the pipeline invariants.

type fakeConfigRepo struct {
	mu      sync.Mutex
	entries map[string]model.ConfigEntry
	getErr  map[string]error
	setErr  error
	gets    int
	sets    int
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{entries: make(map[string]model.ConfigEntry)}
}

func (f *fakeConfigRepo) Get(_ context.Context, key string) (*model.ConfigEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if err := f.getErr[key]; err != nil {
		return nil, err
	}
	entry, ok := f.entries[key]
	if !ok {
		return nil, data.ErrConfigNotFound
	}
	return &entry, nil
}

func (f *fakeConfigRepo) Set(_ context.Context, key, value string, encrypt bool) (*model.ConfigEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return nil, f.setErr
	}
	entry := model.ConfigEntry{Key: key, Value: value, Encrypted: encrypt, UpdatedAt: time.Now()}
	f.entries[key] = entry
	return &entry, nil
}

func (f *fakeConfigRepo) Delete(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	delete(f.entries, key)
	return ok, nil
}

func (f *fakeConfigRepo) List(_ context.Context, _, _ int) ([]*model.ConfigEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.ConfigEntry, 0, len(f.entries))
	for _, e := range f.entries {
		entry := e
		out = append(out, &entry)
	}
	return out, nil
}

type fakeTicketRepo struct {
	mu          sync.Mutex
	tickets     map[int64]model.Ticket
	audits      []model.RetentionAuditEntry
	upsertErrAt int // fail the Nth UpsertBatch call (1-based); 0 disables
	upsertCalls int
	compressErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[int64]model.Ticket)}
}

func (f *fakeTicketRepo) UpsertBatch(_ context.Context, tickets []model.Ticket) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.upsertErrAt > 0 && f.upsertCalls == f.upsertErrAt {
		return 0, apperrors.Internal("upsert batch failed")
	}
	for _, t := range tickets {
		f.tickets[t.ExternalID] = t
	}
	return len(tickets), nil
}

func (f *fakeTicketRepo) ListForPeriod(_ context.Context, start, end time.Time) ([]model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Ticket
	for _, t := range f.tickets {
		if !t.CreatedAt.Before(start) && t.CreatedAt.Before(end) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func partnerKey(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (f *fakeTicketRepo) CompressionBuckets(_ context.Context, cutoff time.Time) ([]model.MonthlyAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buckets := make(map[string]*model.MonthlyAggregate)
	for _, t := range f.tickets {
		if !t.CreatedAt.Before(cutoff) {
			continue
		}
		key := fmt.Sprintf("%d-%d-%s", t.CreatedAt.Year(), int(t.CreatedAt.Month()), partnerKey(t.PartnerID))
		b := buckets[key]
		if b == nil {
			b = &model.MonthlyAggregate{
				Year:      t.CreatedAt.Year(),
				Month:     int(t.CreatedAt.Month()),
				PartnerID: t.PartnerID,
			}
			buckets[key] = b
		}
		b.TotalTickets++
		b.CompressedFromCount++
		if t.IsResolved() {
			b.ResolvedTickets++
		}
		if t.HasTag(model.TagDataLoss) {
			b.DataLossTickets++
		}
	}
	out := make([]model.MonthlyAggregate, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return partnerKey(out[i].PartnerID) < partnerKey(out[j].PartnerID)
	})
	return out, nil
}

func (f *fakeTicketRepo) CompressBucket(
	_ context.Context,
	cutoff time.Time,
	agg model.MonthlyAggregate,
	audit model.RetentionAuditEntry,
) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.compressErr != nil {
		return 0, f.compressErr
	}
	removed := 0
	for id, t := range f.tickets {
		if t.CreatedAt.Before(cutoff) &&
			t.CreatedAt.Year() == agg.Year &&
			int(t.CreatedAt.Month()) == agg.Month &&
			partnerKey(t.PartnerID) == partnerKey(agg.PartnerID) {
			delete(f.tickets, id)
			removed++
		}
	}
	f.audits = append(f.audits, audit)
	return removed, nil
}

func (f *fakeTicketRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickets), nil
}

type storedSnapshot struct {
	snap  model.WeeklySnapshot
	stats []model.GroupResolutionStat
	raw   []model.SnapshotTicket
}

type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[string]storedSnapshot
	audits    []model.RetentionAuditEntry
	deleteErr error
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[string]storedSnapshot)}
}

func (f *fakeSnapshotRepo) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.snapshots[id]
	return ok, nil
}

func (f *fakeSnapshotRepo) GetByID(_ context.Context, id string) (*model.WeeklySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.snapshots[id]
	if !ok {
		return nil, apperrors.NotFoundf("snapshot %q not found", id)
	}
	snap := stored.snap
	return &snap, nil
}

func (f *fakeSnapshotRepo) Insert(
	_ context.Context,
	snap model.WeeklySnapshot,
	stats []model.GroupResolutionStat,
	raw []model.SnapshotTicket,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.snapshots[snap.ID]; ok {
		return apperrors.Conflict("snapshot already exists")
	}
	f.snapshots[snap.ID] = storedSnapshot{snap: snap, stats: stats, raw: raw}
	return nil
}

func (f *fakeSnapshotRepo) Replace(
	_ context.Context,
	snap model.WeeklySnapshot,
	stats []model.GroupResolutionStat,
	raw []model.SnapshotTicket,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[snap.ID] = storedSnapshot{snap: snap, stats: stats, raw: raw}
	return nil
}

func (f *fakeSnapshotRepo) ListExpiring(_ context.Context, notifyBefore, hardExpiry time.Time) ([]model.WeeklySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.WeeklySnapshot
	for _, stored := range f.snapshots {
		if stored.snap.CreatedAt.Before(notifyBefore) && stored.snap.ExpiresAt.After(hardExpiry) {
			out = append(out, stored.snap)
		}
	}
	sortSnapshots(out)
	return out, nil
}

func (f *fakeSnapshotRepo) ListExpired(_ context.Context, now, hardCutoff time.Time) ([]model.WeeklySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.WeeklySnapshot
	for _, stored := range f.snapshots {
		if !stored.snap.ExpiresAt.After(now) || stored.snap.CreatedAt.Before(hardCutoff) {
			out = append(out, stored.snap)
		}
	}
	sortSnapshots(out)
	return out, nil
}

func sortSnapshots(snaps []model.WeeklySnapshot) {
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
}

func (f *fakeSnapshotRepo) DeleteWithAudit(_ context.Context, id string, audit model.RetentionAuditEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	_, ok := f.snapshots[id]
	if !ok {
		return false, nil
	}
	delete(f.snapshots, id)
	f.audits = append(f.audits, audit)
	return true, nil
}

type fakeAggregateRepo struct {
	mu         sync.Mutex
	aggregates map[string]model.MonthlyAggregate
	audits     []model.RetentionAuditEntry
	deleteErr  error
}

func newFakeAggregateRepo() *fakeAggregateRepo {
	return &fakeAggregateRepo{aggregates: make(map[string]model.MonthlyAggregate)}
}

func aggMapKey(key model.AggregateKey) string {
	return fmt.Sprintf("%d-%d-%s", key.Year, key.Month, partnerKey(key.PartnerID))
}

func (f *fakeAggregateRepo) Upsert(_ context.Context, agg model.MonthlyAggregate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aggregates[aggMapKey(agg.Key())] = agg
	return nil
}

func (f *fakeAggregateRepo) GetByKey(_ context.Context, key model.AggregateKey) (*model.MonthlyAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if agg, ok := f.aggregates[aggMapKey(key)]; ok {
		return &agg, nil
	}
	return nil, apperrors.NotFound("aggregate not found")
}

func (f *fakeAggregateRepo) List(_ context.Context, _, _ int) ([]model.MonthlyAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.MonthlyAggregate, 0, len(f.aggregates))
	for _, agg := range f.aggregates {
		out = append(out, agg)
	}
	return out, nil
}

func (f *fakeAggregateRepo) ListOlderThan(_ context.Context, cutoff time.Time) ([]model.MonthlyAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MonthlyAggregate
	for _, agg := range f.aggregates {
		monthEnd := time.Date(agg.Year, time.Month(agg.Month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		if monthEnd.Before(cutoff) {
			out = append(out, agg)
		}
	}
	return out, nil
}

func (f *fakeAggregateRepo) DeleteWithAudit(_ context.Context, key model.AggregateKey, audit model.RetentionAuditEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	mapKey := aggMapKey(key)
	if _, ok := f.aggregates[mapKey]; !ok {
		return false, nil
	}
	delete(f.aggregates, mapKey)
	f.audits = append(f.audits, audit)
	return true, nil
}

type fakeLedger struct {
	mu        sync.Mutex
	rows      map[string]*model.JobExecution
	order     []string
	createErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[string]*model.JobExecution)}
}

func (f *fakeLedger) CreateRunning(_ context.Context, ec model.ExecutionContext) (*model.JobExecution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	row := &model.JobExecution{
		JobID:     ec.JobID,
		Status:    model.JobStatusRunning,
		Source:    ec.Source,
		StartedAt: ec.ExecutedAt,
	}
	f.rows[ec.JobID] = row
	f.order = append(f.order, ec.JobID)
	return row, nil
}

func (f *fakeLedger) Finalize(_ context.Context, jobID string, completion model.JobCompletion) (*model.JobExecution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[jobID]
	if !ok {
		return nil, apperrors.NotFound("job not found")
	}
	if row.Status != model.JobStatusRunning {
		return nil, apperrors.Conflict("job already finalized")
	}
	row.Status = completion.Status
	row.SnapshotID = completion.SnapshotID
	row.CompletedAt = &completion.CompletedAt
	row.Error = completion.Error
	row.TicketsFetched = completion.TicketsFetched
	row.TicketsUpserted = completion.TicketsUpserted
	return row, nil
}

func (f *fakeLedger) GetByJobID(_ context.Context, jobID string) (*model.JobExecution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[jobID]
	if !ok {
		return nil, apperrors.NotFound("job not found")
	}
	copied := *row
	return &copied, nil
}

func (f *fakeLedger) ListRecent(_ context.Context, limit int) ([]model.JobExecution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.JobExecution, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.rows[f.order[i]])
	}
	return out, nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string][]byte
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string][]byte)}
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeCache) Delete(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.values[key]
	delete(f.values, key)
	return ok, nil
}

func (f *fakeCache) Health(_ context.Context) error { return nil }

type fakeHelpdeskClient struct {
	mu               sync.Mutex
	allTickets       []model.Ticket
	updatedTickets   []model.Ticket
	groups           []model.ReferenceGroup
	companies        []model.ReferenceCompany
	fetchErr         error
	refErr           error
	fullCalls        int
	incrementalCalls int
	sinceSeen        []time.Time
	blockUntil       chan struct{} // when set, fetches block until closed
}

func (f *fakeHelpdeskClient) GetAllTickets(_ context.Context) ([]model.Ticket, error) {
	f.mu.Lock()
	f.fullCalls++
	block := f.blockUntil
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.allTickets, nil
}

func (f *fakeHelpdeskClient) GetTicketsUpdatedSince(_ context.Context, since time.Time) ([]model.Ticket, error) {
	f.mu.Lock()
	f.incrementalCalls++
	f.sinceSeen = append(f.sinceSeen, since)
	block := f.blockUntil
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.updatedTickets, nil
}

func (f *fakeHelpdeskClient) GetReferenceGroups(_ context.Context) ([]model.ReferenceGroup, error) {
	if f.refErr != nil {
		return nil, f.refErr
	}
	return f.groups, nil
}

func (f *fakeHelpdeskClient) GetReferenceCompanies(_ context.Context) ([]model.ReferenceCompany, error) {
	if f.refErr != nil {
		return nil, f.refErr
	}
	return f.companies, nil
}

type fakeFallbackSink struct {
	mu      sync.Mutex
	entries []model.RetentionAuditEntry
	err     error
}

func (f *fakeFallbackSink) Append(_ context.Context, entry model.RetentionAuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}
