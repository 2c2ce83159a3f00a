package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deskmetrics/deskmetrics/internal/core"
	"github.com/deskmetrics/deskmetrics/internal/data"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
	apperrors "github.com/deskmetrics/deskmetrics/internal/errors"
)

// ConfigKeySyncCursor is the config key holding the sync watermark, stored as
// an RFC 3339 timestamp.
const ConfigKeySyncCursor = "sync.cursor"

// syncBatchSize bounds the rows per upsert transaction so a sync cannot hold
// locks or pool connections for the whole fetch.
const syncBatchSize = 100

// Reference-data cache keys.
const (
	cacheKeyRefGroups    = "refdata:groups"
	cacheKeyRefCompanies = "refdata:companies"
	refDataCacheTTL      = 7 * 24 * time.Hour
)

// SyncServiceOptions groups dependencies for SyncService.
type SyncServiceOptions struct {
	Client       core.HelpdeskClient // Required: ticketing collaborator
	Tickets      core.TicketRepository
	ConfigStore  *ConfigStoreService  // Required: holds the sync cursor
	Cache        core.CacheRepository // Optional: reference-data cache
	TimeProvider data.TimeProvider    // Optional: defaults to real time
	Logger       *slog.Logger         // Optional: structured logger
}

// SyncService decides full-vs-incremental from the persisted cursor, fetches
// from the helpdesk collaborator, and upserts the results in bounded batches.
type SyncService struct {
	client       core.HelpdeskClient
	tickets      core.TicketRepository
	configStore  *ConfigStoreService
	cache        core.CacheRepository
	timeProvider data.TimeProvider
	logger       *slog.Logger
}

// NewSyncService constructs a new SyncService.
func NewSyncService(opts SyncServiceOptions) (*SyncService, error) {
	if opts.Client == nil {
		return nil, errors.New("HelpdeskClient is required")
	}
	if opts.Tickets == nil {
		return nil, errors.New("TicketRepository is required")
	}
	if opts.ConfigStore == nil {
		return nil, errors.New("ConfigStoreService is required")
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sync_service")
	}

	return &SyncService{
		client:       opts.Client,
		tickets:      opts.Tickets,
		configStore:  opts.ConfigStore,
		cache:        opts.Cache,
		timeProvider: opts.TimeProvider,
		logger:       logger,
	}, nil
}

// MustNewSyncService constructs a new SyncService and panics on error.
func MustNewSyncService(opts SyncServiceOptions) *SyncService {
	svc, err := NewSyncService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// Plan reads the persisted cursor and decides the fetch mode for this run.
// An absent or unparseable cursor falls back to a full sync.
func (s *SyncService) Plan(ctx context.Context) (model.SyncPlan, error) {
	raw, err := s.configStore.Get(ctx, ConfigKeySyncCursor)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return model.FullSync(), nil
		}
		return model.SyncPlan{}, fmt.Errorf("read sync cursor: %w", err)
	}

	since, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "sync cursor unparseable, falling back to full sync",
				"cursor", raw, "error", err)
		}
		return model.FullSync(), nil
	}
	return model.IncrementalSync(since), nil
}

// Run executes one sync: plan, fetch, upsert in batches, then advance the
// cursor to this run's start time. The cursor is written only after every
// fetched row is persisted, and it is set to the start (not completion) time
// so entities mutated mid-fetch are re-fetched next run.
func (s *SyncService) Run(ctx context.Context) (*model.SyncResult, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}

	syncStart := s.timeProvider.Now()
	result := &model.SyncResult{Plan: plan, SyncStart: syncStart}

	var fetched []model.Ticket
	if plan.IsFull() {
		fetched, err = s.client.GetAllTickets(ctx)
	} else {
		fetched, err = s.client.GetTicketsUpdatedSince(ctx, plan.Since)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch tickets (%s): %w", plan.Mode, err)
	}
	result.TicketsFetched = len(fetched)

	for i := range fetched {
		fetched[i].SyncedAt = syncStart
	}

	for start := 0; start < len(fetched); start += syncBatchSize {
		end := start + syncBatchSize
		if end > len(fetched) {
			end = len(fetched)
		}
		n, err := s.tickets.UpsertBatch(ctx, fetched[start:end])
		if err != nil {
			// Earlier batches stay committed; the cursor is not advanced, so
			// the next run re-fetches everything from the old watermark.
			return nil, fmt.Errorf("upsert batch [%d:%d]: %w", start, end, err)
		}
		result.TicketsUpserted += n
	}

	if plan.IsFull() {
		result.ReferenceLoaded = s.loadReferenceData(ctx)
	}

	cursor := syncStart.UTC().Format(time.RFC3339Nano)
	if err := s.configStore.Set(ctx, ConfigKeySyncCursor, cursor, false); err != nil {
		return nil, fmt.Errorf("advance sync cursor: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "sync completed",
			"mode", plan.Mode,
			"fetched", result.TicketsFetched,
			"upserted", result.TicketsUpserted,
			"cursor", cursor)
	}
	return result, nil
}

// loadReferenceData fetches group and company reference data and caches it.
// Reference data churns far less than tickets, so incremental runs reuse the
// cache; a failed fetch is logged and the sync continues with stale or empty
// reference data rather than aborting.
func (s *SyncService) loadReferenceData(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}

	groups, err := s.client.GetReferenceGroups(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "reference group fetch failed, continuing with cached data", "error", err)
		}
		return false
	}
	companies, err := s.client.GetReferenceCompanies(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "reference company fetch failed, continuing with cached data", "error", err)
		}
		return false
	}

	if err := s.cacheJSON(ctx, cacheKeyRefGroups, groups); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "reference group cache write failed", "error", err)
		}
		return false
	}
	if err := s.cacheJSON(ctx, cacheKeyRefCompanies, companies); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "reference company cache write failed", "error", err)
		}
		return false
	}
	return true
}

func (s *SyncService) cacheJSON(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.cache.Set(ctx, key, payload, refDataCacheTTL)
}

// CachedReferenceGroups returns the reference groups from the cache, or nil
// when absent.
func (s *SyncService) CachedReferenceGroups(ctx context.Context) ([]model.ReferenceGroup, error) {
	if s.cache == nil {
		return nil, nil
	}
	raw, err := s.cache.Get(ctx, cacheKeyRefGroups)
	if err != nil || raw == nil {
		return nil, err
	}
	var groups []model.ReferenceGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("unmarshal cached groups: %w", err)
	}
	return groups, nil
}

// CachedReferenceCompanies returns the reference companies from the cache, or
// nil when absent.
func (s *SyncService) CachedReferenceCompanies(ctx context.Context) ([]model.ReferenceCompany, error) {
	if s.cache == nil {
		return nil, nil
	}
	raw, err := s.cache.Get(ctx, cacheKeyRefCompanies)
	if err != nil || raw == nil {
		return nil, err
	}
	var companies []model.ReferenceCompany
	if err := json.Unmarshal(raw, &companies); err != nil {
		return nil, fmt.Errorf("unmarshal cached companies: %w", err)
	}
	return companies, nil
}
