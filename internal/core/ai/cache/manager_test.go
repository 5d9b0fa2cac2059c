package cache

import (
	"context"
	"testing"
	"time"

	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, maxSize int) (*CacheManager, *time.Time) {
	t.Helper()
	m := NewManager(config.CacheConfig{MaxSize: maxSize, TTL: time.Minute})
	t.Cleanup(func() { _ = m.Close() })
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManagerGetSet(t *testing.T) {
	m, _ := newTestManager(t, 10)
	ctx := context.Background()

	_, err := m.Get(ctx, "prompt")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "prompt", "value"))
	got, err := m.Get(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	stats := m.GetStats()
	assert.EqualValues(t, 1, stats["hits"])
	assert.EqualValues(t, 1, stats["misses"])
}

func TestManagerExpiry(t *testing.T) {
	m, now := newTestManager(t, 10)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "prompt", "value"))
	*now = now.Add(2 * time.Minute)

	_, err := m.Get(ctx, "prompt")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	assert.Equal(t, 0, m.GetStats()["size"])
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	m, now := newTestManager(t, 2)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1"))
	*now = now.Add(time.Second)
	require.NoError(t, m.Set(ctx, "b", "2"))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", "3"))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}
