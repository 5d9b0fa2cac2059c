package cache

import (
	"context"
	"testing"
	"time"

	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	svc, err := NewService(context.Background(),
		config.CacheConfig{TTL: time.Hour},
		config.RedisConfig{Addr: mr.Addr()},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, mr
}

func TestRedisServiceGetSet(t *testing.T) {
	svc, mr := newRedisService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "prompt")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, svc.Set(ctx, "prompt", `{"calories":1}`))
	got, err := svc.Get(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"calories":1}`, got)

	key := svc.generateKey("prompt")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestRedisServiceExpiry(t *testing.T) {
	svc, mr := newRedisService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "prompt", "v"))
	mr.FastForward(2 * time.Hour)

	_, err := svc.Get(ctx, "prompt")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestNewServiceUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewService(context.Background(), config.CacheConfig{TTL: time.Minute}, config.RedisConfig{Addr: addr})
	assert.ErrorContains(t, err, "failed to connect to Redis")
}
