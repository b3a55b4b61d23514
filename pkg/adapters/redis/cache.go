package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/arbor/pkg/ports"
)

// Cache implements ports.Cache with one JSON string per slot.
type Cache struct {
	client *backend.Client
	prefix string
}

// NewCache creates a cache on client.
func NewCache(client *backend.Client, opts ...Option) *Cache {
	o := buildOptions(opts)
	return &Cache{client: client, prefix: o.prefix}
}

// Get reads a slot.
func (c *Cache) Get(ctx context.Context, slot string) (*ports.CacheEntry, error) {
	data, err := c.client.Get(ctx, c.prefix+"cache:"+slot).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cache slot: %w", err)
	}
	var e ports.CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode cache slot: %w", err)
	}
	return &e, nil
}

// Set writes a slot without expiry.
func (c *Cache) Set(ctx context.Context, slot string, entry *ports.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache slot: %w", err)
	}
	return c.client.Set(ctx, c.prefix+"cache:"+slot, data, 0).Err()
}
