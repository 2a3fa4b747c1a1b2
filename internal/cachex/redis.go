package cachex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avolkov/diaryvault/internal/common"
)

// RedisCache implements Cache over a Redis connection. All failures are
// wrapped in common.ErrCacheUnavailable so callers can treat them uniformly
// as "degrade to durable storage".
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to addr and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: ping %s: %w", common.ErrCacheUnavailable, addr, err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %w", common.ErrCacheUnavailable, key, err)
	}
	return val, true, nil
}

func (c *RedisCache) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", common.ErrCacheUnavailable, key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: del: %w", common.ErrCacheUnavailable, err)
	}
	return nil
}

// DeleteByPrefix scans for prefix* and deletes the matches in batches.
// SCAN is used instead of KEYS to avoid stalling the server.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()

	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.Delete(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: scan %s*: %w", common.ErrCacheUnavailable, prefix, err)
	}
	return c.Delete(ctx, batch...)
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
