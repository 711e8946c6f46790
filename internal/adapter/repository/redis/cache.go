package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/celulandia/cuentas/internal/infrastructure/metrics"
	"github.com/celulandia/cuentas/internal/usecase"
)

// Cache implements usecase.Cache using Redis.
type Cache struct {
	client  *redis.Client
	prefix  string
	metrics *metrics.Metrics
}

// NewCache creates a new Cache.
func NewCache(client *redis.Client) *Cache {
	return &Cache{
		client: client,
		prefix: "cuentas:cache:",
	}
}

// WithMetrics counts failed Redis calls.
func (c *Cache) WithMetrics(m *metrics.Metrics) *Cache {
	c.metrics = m
	return c
}

// Get retrieves a value by key. A missing key yields usecase.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, usecase.ErrCacheMiss
		}
		return nil, c.count("get", err)
	}
	return val, nil
}

// Set stores a value with TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.count("set", c.client.Set(ctx, c.prefix+key, value, ttl).Err())
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.count("delete", c.client.Del(ctx, c.prefix+key).Err())
}

func (c *Cache) count(operation string, err error) error {
	if err != nil && c.metrics != nil {
		c.metrics.RedisErrors.WithLabelValues("cache_" + operation).Inc()
	}
	return err
}
