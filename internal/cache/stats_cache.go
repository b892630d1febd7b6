package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/redis/go-redis/v9"
)

const (
	statsKey           = "rentalbooking:stats:bookings"
	statsGenerationKey = "rentalbooking:stats:generation"
	defaultStatsTTL    = time.Minute
)

func statsEntryKey(generation int64) string {
	return fmt.Sprintf("%s:%d", statsKey, generation)
}

type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// GetStats returns the entry of the current generation, nil on a miss. The
// generation goes back to SetStats so stats computed before a write land under
// a key no reader asks for.
func (c *StatsCache) GetStats(ctx context.Context) (*models.BookingStats, int64, error) {
	generation, err := c.rdb.Get(ctx, statsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		generation, err = 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	key := statsEntryKey(generation)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, generation, nil
	}
	if err != nil {
		return nil, 0, err
	}

	var stats models.BookingStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// a bad entry is treated as a miss and dropped
		_ = c.rdb.Del(ctx, key).Err()
		return nil, generation, nil
	}
	return &stats, generation, nil
}

func (c *StatsCache) SetStats(ctx context.Context, generation int64, stats *models.BookingStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, statsEntryKey(generation), raw, c.ttl).Err()
}

// Invalidate starts a new generation; older entries expire on their ttl.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, statsGenerationKey).Err()
}

// NoopStatsCache always misses; used when redis is not configured.
type NoopStatsCache struct{}

func (NoopStatsCache) GetStats(context.Context) (*models.BookingStats, int64, error) {
	return nil, 0, nil
}

func (NoopStatsCache) SetStats(context.Context, int64, *models.BookingStats) error { return nil }

func (NoopStatsCache) Invalidate(context.Context) error { return nil }
