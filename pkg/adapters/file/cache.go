package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/arbor/pkg/ports"
)

// Cache implements ports.Cache with one JSON file per slot.
type Cache struct {
	Dir string
}

// NewCache creates a cache in dir, defaulting to ".arbor/cache".
func NewCache(dir string) *Cache {
	if dir == "" {
		dir = filepath.Join(".arbor", "cache")
	}
	return &Cache{Dir: dir}
}

// Get reads the slot file.
func (c *Cache) Get(ctx context.Context, slot string) (*ports.CacheEntry, error) {
	if err := checkSessionID(slot); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(c.Dir, slot+".json"))
	if err != nil {
		if os.IsNotExist(err) {
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

// Set writes the slot file atomically.
func (c *Cache) Set(ctx context.Context, slot string, entry *ports.CacheEntry) error {
	if err := checkSessionID(slot); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache slot: %w", err)
	}
	return writeAtomic(filepath.Join(c.Dir, slot+".json"), data)
}
