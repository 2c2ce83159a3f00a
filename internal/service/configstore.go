package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/deskmetrics/deskmetrics/internal/core"
	"github.com/deskmetrics/deskmetrics/internal/data"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
	apperrors "github.com/deskmetrics/deskmetrics/internal/errors"
)

// DefaultConfigCacheTTL bounds how long a decrypted value may be served from
// memory before the store re-reads it.
const DefaultConfigCacheTTL = 5 * time.Minute

const maskVisible = 4

// ConfigChangeListener is invoked synchronously after a config key is written
// or deleted, so in-process dependents can self-invalidate without a restart.
type ConfigChangeListener func(key string)

// ConfigStoreServiceOptions groups dependencies for ConfigStoreService.
type ConfigStoreServiceOptions struct {
	Repo         core.ConfigRepository // Required: config repository
	CacheTTL     time.Duration         // Optional: defaults to DefaultConfigCacheTTL
	TimeProvider data.TimeProvider     // Optional: defaults to real time
	Logger       *slog.Logger          // Optional: structured logger
}

type cachedValue struct {
	entry    model.ConfigEntry
	cachedAt time.Time
}

// ConfigStoreService is the secure config store. Reads go through a
// bounded-TTL in-memory cache that holds decrypted plaintext only; nothing
// decrypted is ever persisted or pushed to an external cache.
type ConfigStoreService struct {
	repo         core.ConfigRepository
	cacheTTL     time.Duration
	timeProvider data.TimeProvider
	logger       *slog.Logger

	mu        sync.RWMutex
	cache     map[string]cachedValue
	listeners []ConfigChangeListener
}

// NewConfigStoreService constructs a new ConfigStoreService.
func NewConfigStoreService(opts ConfigStoreServiceOptions) (*ConfigStoreService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ConfigRepository is required")
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultConfigCacheTTL
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "config_store")
	}

	return &ConfigStoreService{
		repo:         opts.Repo,
		cacheTTL:     opts.CacheTTL,
		timeProvider: opts.TimeProvider,
		logger:       logger,
		cache:        make(map[string]cachedValue),
	}, nil
}

// MustNewConfigStoreService constructs a new ConfigStoreService and panics on
// error. Use this when you want fail-fast behavior during application startup.
func MustNewConfigStoreService(opts ConfigStoreServiceOptions) *ConfigStoreService {
	svc, err := NewConfigStoreService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// Subscribe registers a listener notified synchronously on every write or
// delete. Listeners must be fast; they run on the caller's goroutine.
func (s *ConfigStoreService) Subscribe(fn ConfigChangeListener) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Get returns the decrypted value for key, serving from the in-memory cache
// when the entry is younger than the TTL. A corrupt ciphertext is logged and
// reported as NotFound so callers treat it as "value absent".
func (s *ConfigStoreService) Get(ctx context.Context, key string) (string, error) {
	if err := model.ValidateConfigKey(key); err != nil {
		return "", apperrors.Validation(err.Error())
	}

	now := s.timeProvider.Now()

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && now.Sub(cached.cachedAt) < s.cacheTTL {
		value := cached.entry.Value
		s.mu.RUnlock()
		return value, nil
	}
	s.mu.RUnlock()

	entry, err := s.repo.Get(ctx, key)
	if err != nil {
		if apperrors.IsDecryption(err) {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "config value undecryptable, treating as absent", "key", key)
			}
			return "", apperrors.NotFoundf("config key %q not found", key)
		}
		return "", err
	}

	s.mu.Lock()
	s.cache[key] = cachedValue{entry: *entry, cachedAt: now}
	s.mu.Unlock()

	return entry.Value, nil
}

// GetEntry returns the full decrypted entry, bypassing the cache.
func (s *ConfigStoreService) GetEntry(ctx context.Context, key string) (*model.ConfigEntry, error) {
	if err := model.ValidateConfigKey(key); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	return s.repo.Get(ctx, key)
}

// Set encrypts (when requested) and upserts the value, invalidates the cache
// entry, and synchronously notifies listeners. The repository appends the
// activity-log row in the same transaction as the upsert.
func (s *ConfigStoreService) Set(ctx context.Context, key, value string, encrypt bool) error {
	if err := model.ValidateConfigKey(key); err != nil {
		return apperrors.Validation(err.Error())
	}

	if _, err := s.repo.Set(ctx, key, value, encrypt); err != nil {
		return err
	}

	s.invalidate(key)
	s.notify(key)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "config value written",
			"key", key, "encrypted", encrypt, "value_length", len(value))
	}
	return nil
}

// Delete removes the entry, invalidates the cache, and notifies listeners.
// Returns false when the key did not exist.
func (s *ConfigStoreService) Delete(ctx context.Context, key string) (bool, error) {
	if err := model.ValidateConfigKey(key); err != nil {
		return false, apperrors.Validation(err.Error())
	}

	deleted, err := s.repo.Delete(ctx, key)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidate(key)
		s.notify(key)
	}
	return deleted, nil
}

// Mask returns a fixed-prefix/suffix view of the stored value with the middle
// replaced. Short values are fully masked. Never returns the plaintext.
func (s *ConfigStoreService) Mask(ctx context.Context, key string) (string, error) {
	value, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return maskValue(value), nil
}

// List returns entry metadata without decrypting anything.
func (s *ConfigStoreService) List(ctx context.Context, limit, offset int) ([]*model.ConfigEntry, error) {
	return s.repo.List(ctx, limit, offset)
}

// InvalidateAll drops every cached plaintext. Used when the encryption key
// holder restarts or an operator forces a reload.
func (s *ConfigStoreService) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cachedValue)
}

func (s *ConfigStoreService) invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, key)
}

func (s *ConfigStoreService) notify(key string) {
	s.mu.RLock()
	listeners := make([]ConfigChangeListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(key)
	}
}

func maskValue(value string) string {
	if len(value) <= maskVisible*2 {
		return strings.Repeat("*", 8)
	}
	return value[:maskVisible] + "********" + value[len(value)-maskVisible:]
}
