package ports

import (
	"context"
	"errors"

	"github.com/aretw0/arbor/pkg/domain"
)

// ErrCacheMiss is returned by Cache.Get when the slot is empty.
var ErrCacheMiss = errors.New("cache miss")

// CacheEntry is what the last-viewed slot holds.
type CacheEntry struct {
	Key       string            `json:"key"`
	Flowchart *domain.Flowchart `json:"flowchart"`
}

// Cache keeps the most recently opened flowchart per slot.
type Cache interface {
	Get(ctx context.Context, slot string) (*CacheEntry, error)
	Set(ctx context.Context, slot string, entry *CacheEntry) error
}
