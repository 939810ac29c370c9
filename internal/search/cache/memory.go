package cache

import (
	"context"
	"sync"

	"seqguard/internal/search"
)

// InMemoryCache keeps results for the life of the process. Entries never expire.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]search.Hit
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string][]search.Hit)}
}

func (c *InMemoryCache) Get(_ context.Context, key string) ([]search.Hit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hits, ok := c.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]search.Hit{}, hits...), nil
}

func (c *InMemoryCache) Put(_ context.Context, key string, hits []search.Hit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]search.Hit{}, hits...)
	return nil
}

// Len reports the number of cached keys.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
