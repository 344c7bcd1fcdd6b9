package weathercache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/krishi-vaani/internal/domain/environment"
)

type entry struct {
	sample    environment.Sample
	expiresAt time.Time
}

// MemoryCache keeps weather samples in process memory.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (environment.Sample, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return environment.Sample{}, false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return environment.Sample{}, false, nil
	}
	return e.sample, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, sample environment.Sample, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{sample: sample}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Purge drops expired entries and returns how many were removed.
func (c *MemoryCache) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

var _ environment.Cache = (*MemoryCache)(nil)
