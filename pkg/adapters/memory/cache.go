package memory

import (
	"context"
	"sync"

	"github.com/aretw0/arbor/pkg/ports"
)

// Cache implements ports.Cache in memory.
type Cache struct {
	mu    sync.RWMutex
	slots map[string]ports.CacheEntry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{slots: make(map[string]ports.CacheEntry)}
}

// Get returns a copy of the slot.
func (c *Cache) Get(ctx context.Context, slot string) (*ports.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.slots[slot]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return &ports.CacheEntry{Key: e.Key, Flowchart: e.Flowchart.Clone()}, nil
}

// Set replaces the slot.
func (c *Cache) Set(ctx context.Context, slot string, entry *ports.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[slot] = ports.CacheEntry{Key: entry.Key, Flowchart: entry.Flowchart.Clone()}
	return nil
}
