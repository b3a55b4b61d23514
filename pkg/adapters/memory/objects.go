package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

type object struct {
	body     []byte
	revision int
	modified time.Time
}

// ObjectStore implements ports.ObjectStore in memory. Versions are revision
// counters. Safe for concurrent use.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string]*object
	now     func() time.Time
}

// NewObjectStore creates an empty object store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string]*object), now: time.Now}
}

// Get returns a copy of the stored object.
func (s *ObjectStore) Get(ctx context.Context, key string) (*ports.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[key]
	if !ok {
		return nil, ports.ErrObjectNotFound
	}
	return &ports.Object{
		Key:          key,
		Body:         append([]byte(nil), o.body...),
		Version:      strconv.Itoa(o.revision),
		LastModified: o.modified,
	}, nil
}

// Put stores body under key, honouring the preconditions in opts.
func (s *ObjectStore) Put(ctx context.Context, key string, body []byte, opts ports.PutOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.objects[key]
	if opts.IfNoneMatch && exists {
		return "", domain.ErrVersionConflict
	}
	if opts.IfMatch != "" && (!exists || strconv.Itoa(cur.revision) != opts.IfMatch) {
		return "", domain.ErrVersionConflict
	}

	rev := 1
	if exists {
		rev = cur.revision + 1
	}
	s.objects[key] = &object{body: append([]byte(nil), body...), revision: rev, modified: s.now()}
	return strconv.Itoa(rev), nil
}

// List returns objects under prefix sorted by key.
func (s *ObjectStore) List(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ports.ObjectInfo
	for k, o := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ports.ObjectInfo{Key: k, Filename: strings.TrimPrefix(k, prefix), LastModified: o.modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete removes key.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return ports.ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}
