package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is a thin versioned cache on top of redis. When redis is unavailable
// every operation degrades to a no-op so the service keeps running without it.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewCache(address string, logger zerolog.Logger) *Cache {
	c := &Cache{logger: logger.With().Str("component", "cache").Logger()}

	client := redis.NewClient(&redis.Options{Addr: address})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		c.logger.Warn().Err(err).Msg("redis not available, running without cache")
		return c
	}

	c.client = client
	c.logger.Info().Msg("redis connected")
	return c
}

// Get unmarshals the cached value into dest. Returns false on miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

// GetVersion returns the current version counter for key, 0 when unset.
func (c *Cache) GetVersion(ctx context.Context, key string) int64 {
	if c.client == nil {
		return 0
	}
	v, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return v
}

// IncrementVersion bumps the version counter so stale cache entries for the
// previous version are never read again.
func (c *Cache) IncrementVersion(ctx context.Context, key string) {
	if c.client == nil {
		return
	}
	if err := c.client.Incr(ctx, key).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to bump cache version")
	}
}
