package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"seqguard/internal/search"
	"seqguard/pkg/platform/sentinel"
)

// RedisCache stores hit lists as JSON strings. A zero TTL keeps entries
// until Redis evicts them.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]search.Hit, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var hits []search.Hit
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, fmt.Errorf("decode cached hits: %w: %w", sentinel.ErrInvalidState, err)
	}
	return hits, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, hits []search.Hit) error {
	if hits == nil {
		hits = []search.Hit{}
	}
	raw, err := json.Marshal(hits)
	if err != nil {
		return fmt.Errorf("encode hits: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
