package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/chrisdamba/rentalbooking/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestStatsCache(t *testing.T) {
	ctx := context.Background()
	stats := &models.BookingStats{
		ByStatus: []models.StatusStat{
			{Status: models.StatusCompleted, Count: 2, Revenue: 1500},
			{Status: models.StatusPending, Count: 1, Revenue: 400},
		},
		TotalBookings: 3,
		TotalRevenue:  1500,
		GeneratedAt:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("miss then hit", func(t *testing.T) {
		_, rdb := setupRedis(t)
		c := cache.NewStatsCache(rdb, time.Minute)

		got, generation, err := c.GetStats(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Zero(t, generation)

		require.NoError(t, c.SetStats(ctx, generation, stats))

		got, _, err = c.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, stats, got)
	})

	t.Run("expires after ttl", func(t *testing.T) {
		mr, rdb := setupRedis(t)
		c := cache.NewStatsCache(rdb, 30*time.Second)
		require.NoError(t, c.SetStats(ctx, 0, stats))

		mr.FastForward(31 * time.Second)

		got, _, err := c.GetStats(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalidate", func(t *testing.T) {
		_, rdb := setupRedis(t)
		c := cache.NewStatsCache(rdb, time.Minute)
		require.NoError(t, c.SetStats(ctx, 0, stats))
		require.NoError(t, c.Invalidate(ctx))

		got, generation, err := c.GetStats(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, int64(1), generation)
	})

	t.Run("stats computed before a write are not served", func(t *testing.T) {
		_, rdb := setupRedis(t)
		c := cache.NewStatsCache(rdb, time.Minute)

		_, generation, err := c.GetStats(ctx)
		require.NoError(t, err)

		// a booking changes while the reader aggregates
		require.NoError(t, c.Invalidate(ctx))
		require.NoError(t, c.SetStats(ctx, generation, stats))

		got, current, err := c.GetStats(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, generation+1, current)

		fresh := &models.BookingStats{TotalBookings: 4}
		require.NoError(t, c.SetStats(ctx, current, fresh))
		got, _, err = c.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, fresh, got)
	})

	t.Run("corrupt entry is a miss", func(t *testing.T) {
		mr, rdb := setupRedis(t)
		c := cache.NewStatsCache(rdb, time.Minute)
		require.NoError(t, mr.Set("rentalbooking:stats:bookings:0", "{not json"))

		got, _, err := c.GetStats(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.False(t, mr.Exists("rentalbooking:stats:bookings:0"))
	})

	t.Run("server down", func(t *testing.T) {
		mr, rdb := setupRedis(t)
		c := cache.NewStatsCache(rdb, time.Minute)
		mr.Close()

		_, _, err := c.GetStats(ctx)
		assert.Error(t, err)
	})
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := cache.NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer rdb.Close()

	_, err = cache.NewRedisClient(context.Background(), "://bad")
	assert.Error(t, err)
}

func TestNoopStatsCache(t *testing.T) {
	c := cache.NoopStatsCache{}
	assert.NoError(t, c.SetStats(context.Background(), 0, &models.BookingStats{}))
	got, _, err := c.GetStats(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, got)
}
