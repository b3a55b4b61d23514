package ports

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by ObjectStore.Get and Delete for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

// Object is a stored document with its version tag.
type Object struct {
	Key          string
	Body         []byte
	Version      string
	LastModified time.Time
}

// ObjectInfo describes a listed object.
type ObjectInfo struct {
	Key string
	// Filename is Key with the listing prefix removed.
	Filename     string
	LastModified time.Time
}

// PutOptions carries write preconditions.
type PutOptions struct {
	// IfMatch requires the stored version to equal this value.
	IfMatch string
	// IfNoneMatch requires the key to be absent.
	IfNoneMatch bool
}

// ObjectStore is a flat key to bytes store with conditional writes.
// Failed preconditions return domain.ErrVersionConflict.
type ObjectStore interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, body []byte, opts PutOptions) (version string, err error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// Watcher is implemented by stores that can report external changes.
// The channel yields changed keys and closes when ctx is done.
type Watcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}
