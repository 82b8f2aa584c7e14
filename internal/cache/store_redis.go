package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cache:"

// RedisCache is the production tiered cache. TTL enforcement is delegated to
// Redis key expiry, so an entry can never be served past its tier.
type RedisCache struct {
	client *redis.Client
	ttls   TTLs
}

func NewRedisCache(client *redis.Client, ttls TTLs) *RedisCache {
	return &RedisCache{client: client, ttls: ttls}
}

func cacheKey(category Category, key string) string {
	return keyPrefix + string(category) + ":" + key
}

func (c *RedisCache) Get(ctx context.Context, category Category, key string, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, cacheKey(category, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		recordMiss(category)
		return false, nil
	}
	if err != nil {
		recordMiss(category)
		return false, fmt.Errorf("cache get %s/%s: %w", category, key, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		recordMiss(category)
		return false, fmt.Errorf("cache decode %s/%s: %w", category, key, err)
	}
	recordHit(category)
	return true, nil
}

func (c *RedisCache) Put(ctx context.Context, category Category, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s/%s: %w", category, key, err)
	}
	if err := c.client.Set(ctx, cacheKey(category, key), payload, c.ttls.ttlFor(category)).Err(); err != nil {
		return fmt.Errorf("cache put %s/%s: %w", category, key, err)
	}
	return nil
}

func (c *RedisCache) Evict(ctx context.Context, category Category, key string) error {
	if err := c.client.Del(ctx, cacheKey(category, key)).Err(); err != nil {
		return fmt.Errorf("cache evict %s/%s: %w", category, key, err)
	}
	return nil
}
