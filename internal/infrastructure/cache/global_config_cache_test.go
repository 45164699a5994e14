package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/domain/commission"
)

type countingConfigRepo struct {
	mu    sync.Mutex
	cfg   *commission.GlobalConfig
	reads int
	saves int
}

func (r *countingConfigRepo) ActiveGlobalConfig(ctx context.Context) (*commission.GlobalConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	return r.cfg, nil
}

func (r *countingConfigRepo) Save(ctx context.Context, cfg *commission.GlobalConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.cfg = cfg
	return nil
}

func newTestConfig(t *testing.T, percentage int64) *commission.GlobalConfig {
	cfg, err := commission.NewGlobalConfig(decimal.NewFromInt(percentage), decimal.Zero)
	require.NoError(t, err)
	return cfg
}

func TestCachedGlobalConfigRepository_ActiveGlobalConfig(t *testing.T) {
	t.Run("serves repeated reads from cache", func(t *testing.T) {
		inner := &countingConfigRepo{cfg: newTestConfig(t, 10)}
		cached := NewCachedGlobalConfigRepository(inner, WithGlobalConfigTTL(time.Minute))

		for i := 0; i < 5; i++ {
			cfg, err := cached.ActiveGlobalConfig(context.Background())
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.True(t, cfg.Percentage.Equal(decimal.NewFromInt(10)))
		}

		assert.Equal(t, 1, inner.reads)
	})

	t.Run("caches the absence of a configuration", func(t *testing.T) {
		inner := &countingConfigRepo{cfg: nil}
		cached := NewCachedGlobalConfigRepository(inner, WithGlobalConfigTTL(time.Minute))

		for i := 0; i < 3; i++ {
			cfg, err := cached.ActiveGlobalConfig(context.Background())
			require.NoError(t, err)
			assert.Nil(t, cfg)
		}

		assert.Equal(t, 1, inner.reads)
	})

	t.Run("zero TTL disables caching", func(t *testing.T) {
		inner := &countingConfigRepo{cfg: newTestConfig(t, 10)}
		cached := NewCachedGlobalConfigRepository(inner, WithGlobalConfigTTL(0))

		for i := 0; i < 3; i++ {
			_, err := cached.ActiveGlobalConfig(context.Background())
			require.NoError(t, err)
		}

		assert.Equal(t, 3, inner.reads)
	})
}

func TestCachedGlobalConfigRepository_Save(t *testing.T) {
	t.Run("write-through invalidates the cache", func(t *testing.T) {
		inner := &countingConfigRepo{cfg: newTestConfig(t, 10)}
		cached := NewCachedGlobalConfigRepository(inner, WithGlobalConfigTTL(time.Minute))

		cfg, err := cached.ActiveGlobalConfig(context.Background())
		require.NoError(t, err)
		assert.True(t, cfg.Percentage.Equal(decimal.NewFromInt(10)))

		require.NoError(t, cached.Save(context.Background(), newTestConfig(t, 15)))
		assert.Equal(t, 1, inner.saves)

		cfg, err = cached.ActiveGlobalConfig(context.Background())
		require.NoError(t, err)
		assert.True(t, cfg.Percentage.Equal(decimal.NewFromInt(15)))
		assert.Equal(t, 2, inner.reads)
	})
}

func TestCachedGlobalConfigRepository_Invalidate(t *testing.T) {
	inner := &countingConfigRepo{cfg: newTestConfig(t, 10)}
	cached := NewCachedGlobalConfigRepository(inner, WithGlobalConfigTTL(time.Minute))

	_, err := cached.ActiveGlobalConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.reads)

	cached.Invalidate()

	_, err = cached.ActiveGlobalConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.reads)
}
