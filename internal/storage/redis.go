package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const probeResultsKey = "probe:results"

// RedisCache fronts short-lived, recomputable reads. It deliberately plays
// no part in dedup, which must always consult the authoritative store.
type RedisCache struct {
	client   *redis.Client
	logger   *zap.Logger
	probeTTL time.Duration
}

func NewRedisCache(addr string, probeTTL time.Duration, logger *zap.Logger) *RedisCache {
	if probeTTL <= 0 {
		probeTTL = 5 * time.Minute
	}
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: addr}),
		logger:   logger,
		probeTTL: probeTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ProbeResults returns the cached source connectivity map, if still fresh.
func (c *RedisCache) ProbeResults(ctx context.Context) (map[string]bool, bool) {
	raw, err := c.client.Get(ctx, probeResultsKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("probe cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var results map[string]bool
	if err := json.Unmarshal(raw, &results); err != nil {
		c.logger.Warn("probe cache decode failed", zap.Error(err))
		return nil, false
	}
	return results, true
}

// CacheProbeResults stores the connectivity map with the configured TTL.
// Cache write failures are logged, never surfaced.
func (c *RedisCache) CacheProbeResults(ctx context.Context, results map[string]bool) {
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, probeResultsKey, raw, c.probeTTL).Err(); err != nil {
		c.logger.Warn("probe cache write failed", zap.Error(err))
	}
}
