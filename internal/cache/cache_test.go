package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/kusina/internal/config"
)

func newRedis(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)

	lc := fxtest.NewLifecycle(t)
	store, err := NewStore(lc, config.Config{Cache: config.Cache{
		Enabled:    true,
		Driver:     "redis",
		DefaultTTL: time.Minute,
		Redis:      config.Redis{Addr: srv.Addr()},
	}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	lc.RequireStart()
	t.Cleanup(lc.RequireStop)

	return store, srv
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, srv := newRedis(t)

	_, err := store.Get(ctx, MenuKey)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Set(ctx, MenuKey, []byte("[]"), 0))
	got, err := store.Get(ctx, MenuKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), got)
	assert.Equal(t, time.Minute, srv.TTL(MenuKey))

	srv.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, MenuKey)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisStoreDeleteMany(t *testing.T) {
	ctx := context.Background()
	store, srv := newRedis(t)

	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(ctx, MenuKey, []byte("m"), time.Hour))
	require.NoError(t, store.Set(ctx, StatsKey(day), []byte("s"), time.Hour))

	require.NoError(t, store.Delete(ctx, MenuKey, "", StatsKey(day)))
	assert.False(t, srv.Exists(MenuKey))
	assert.False(t, srv.Exists("kusina:stats:2024-03-05"))
	require.NoError(t, store.Delete(ctx))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedis(t)

	type payload struct {
		Count int `json:"count"`
	}

	var out payload
	hit, err := GetJSON(ctx, store, "kusina:test", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, SetJSON(ctx, store, "kusina:test", payload{Count: 3}, time.Hour))
	hit, err = GetJSON(ctx, store, "kusina:test", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, out.Count)
}

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(fxtest.NewLifecycle(t), config.Config{Cache: config.Cache{Driver: "redis"}}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, MenuKey, []byte("x"), time.Hour))
	_, err = store.Get(ctx, MenuKey)
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = NewStore(fxtest.NewLifecycle(t), config.Config{Cache: config.Cache{Enabled: true, Driver: "memcached"}}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
