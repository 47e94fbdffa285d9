package dedup

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "disaster:"

// RedisCache is a Cache backed by a Redis key with per-key expiration,
// shared across service instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache creates a Redis-backed cache. The connection is lazy; a
// store that is down at construction time simply fails open per check.
func NewRedisCache(addr string, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisCache) IsNew(ctx context.Context, alertID string) bool {
	exists, err := c.client.Exists(ctx, keyPrefix+alertID).Result()
	if err != nil {
		// Fail open: a missed alert is worse than a duplicate notification.
		c.logger.Warn("dedup store check failed, treating alert as new",
			"alert_id", alertID, "error", err)
		return true
	}
	return exists == 0
}

func (c *RedisCache) MarkSeen(ctx context.Context, alertID string) {
	if err := c.client.Set(ctx, keyPrefix+alertID, time.Now().UTC().Format(time.RFC3339), c.ttl).Err(); err != nil {
		c.logger.Warn("dedup store mark failed", "alert_id", alertID, "error", err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
