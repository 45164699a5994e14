package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/commission"
)

// DefaultGlobalConfigTTL bounds staleness when invalidation messages are lost
const DefaultGlobalConfigTTL = 1 * time.Minute

// CachedGlobalConfigRepository decorates a GlobalConfigRepository with an
// in-memory TTL cache. The active global configuration is read on every
// commission calculation and changes rarely, so a short TTL removes the
// hot-path query without admins waiting long to see their update.
type CachedGlobalConfigRepository struct {
	inner  commission.GlobalConfigRepository
	ttl    time.Duration
	logger *zap.Logger

	mu        sync.RWMutex
	cached    *commission.GlobalConfig
	hasValue  bool // distinguishes "no config exists" from "not fetched yet"
	fetchedAt time.Time
}

// CachedGlobalConfigOption is a functional option for the cached repository
type CachedGlobalConfigOption func(*CachedGlobalConfigRepository)

// WithGlobalConfigTTL sets the cache TTL
func WithGlobalConfigTTL(ttl time.Duration) CachedGlobalConfigOption {
	return func(r *CachedGlobalConfigRepository) {
		r.ttl = ttl
	}
}

// WithGlobalConfigLogger sets the logger
func WithGlobalConfigLogger(logger *zap.Logger) CachedGlobalConfigOption {
	return func(r *CachedGlobalConfigRepository) {
		r.logger = logger
	}
}

// NewCachedGlobalConfigRepository creates a new CachedGlobalConfigRepository
func NewCachedGlobalConfigRepository(inner commission.GlobalConfigRepository, opts ...CachedGlobalConfigOption) *CachedGlobalConfigRepository {
	repo := &CachedGlobalConfigRepository{
		inner:  inner,
		ttl:    DefaultGlobalConfigTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ActiveGlobalConfig returns the cached active configuration, refreshing
// from the inner repository when the entry is missing or expired. A nil
// configuration (none exists yet) is cached too.
func (r *CachedGlobalConfigRepository) ActiveGlobalConfig(ctx context.Context) (*commission.GlobalConfig, error) {
	r.mu.RLock()
	if r.hasValue && time.Since(r.fetchedAt) < r.ttl {
		cfg := r.cached
		r.mu.RUnlock()
		return cfg, nil
	}
	r.mu.RUnlock()

	cfg, err := r.inner.ActiveGlobalConfig(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cached = cfg
	r.hasValue = true
	r.fetchedAt = time.Now()
	r.mu.Unlock()

	r.logger.Debug("Refreshed global commission config cache")
	return cfg, nil
}

// Save writes through to the inner repository and invalidates the cache
func (r *CachedGlobalConfigRepository) Save(ctx context.Context, cfg *commission.GlobalConfig) error {
	if err := r.inner.Save(ctx, cfg); err != nil {
		return err
	}
	r.Invalidate()
	return nil
}

// Invalidate drops the cached entry so the next read hits the database
func (r *CachedGlobalConfigRepository) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.hasValue = false
	r.mu.Unlock()
}

// Ensure CachedGlobalConfigRepository implements GlobalConfigRepository
var _ commission.GlobalConfigRepository = (*CachedGlobalConfigRepository)(nil)
