package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryCache keeps the tiered cache in-process for tests and cache-less
// deployments. Expiry is checked on read, so an entry past its tier is never
// served even though nothing sweeps the map.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttls    TTLs
	clock   func() time.Time
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCacheOption configures a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithClock injects a clock for expiry tests.
func WithClock(clock func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func NewMemoryCache(ttls TTLs, opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttls:    ttls,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, category Category, key string, dest any) (bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(category, key)]
	c.mu.RUnlock()

	if !ok || c.clock().After(entry.expiresAt) {
		recordMiss(category)
		return false, nil
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		recordMiss(category)
		return false, fmt.Errorf("cache decode %s/%s: %w", category, key, err)
	}
	recordHit(category)
	return true, nil
}

func (c *MemoryCache) Put(_ context.Context, category Category, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s/%s: %w", category, key, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(category, key)] = memoryEntry{
		payload:   payload,
		expiresAt: c.clock().Add(c.ttls.ttlFor(category)),
	}
	return nil
}

func (c *MemoryCache) Evict(_ context.Context, category Category, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(category, key))
	return nil
}
