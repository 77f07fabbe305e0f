// Package cache implements the optional read-through response cache for
// completed idempotent replays. Postgres stays the source of truth; every
// cache failure degrades to a database lookup.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ficmart/charge-gateway/internal/application"
	"github.com/ficmart/charge-gateway/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores completed responses under "idem:<scope>:<key>" with a
// TTL. The TTL is purely operational; expiry only costs a DB round-trip.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg config.CacheConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: cfg.TTL,
	}
}

func cacheKey(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

func (c *RedisCache) Get(ctx context.Context, scope, key string) (*application.CachedResponse, error) {
	raw, err := c.client.Get(ctx, cacheKey(scope, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var cached application.CachedResponse
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("corrupt cached response: %w", err)
	}

	return &cached, nil
}

func (c *RedisCache) Put(ctx context.Context, scope, key string, response application.CachedResponse) error {
	raw, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("serialize cached response: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(scope, key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ application.ResponseCache = (*RedisCache)(nil)
