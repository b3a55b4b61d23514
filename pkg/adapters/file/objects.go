package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// ObjectStore implements ports.ObjectStore on a directory tree. Keys map to
// relative paths; versions are content hashes, so a file edited by hand gets a
// new version too.
//
// Conditional writes are serialized within the process only.
type ObjectStore struct {
	Root string
	mu   sync.Mutex
}

// NewObjectStore creates a store rooted at root.
func NewObjectStore(root string) *ObjectStore {
	if root == "" {
		root = filepath.Join(".arbor", "data")
	}
	return &ObjectStore{Root: root}
}

func (s *ObjectStore) pathFor(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || strings.HasSuffix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Get reads key.
func (s *ObjectStore) Get(ctx context.Context, key string) (*ports.Object, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ports.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return &ports.Object{Key: key, Body: data, Version: contentVersion(data), LastModified: info.ModTime()}, nil
}

// Put writes key atomically after checking the preconditions.
func (s *ObjectStore) Put(ctx context.Context, key string, body []byte, opts ports.PutOptions) (string, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := os.ReadFile(p)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if opts.IfNoneMatch && exists {
		return "", domain.ErrVersionConflict
	}
	if opts.IfMatch != "" && (!exists || contentVersion(current) != opts.IfMatch) {
		return "", domain.ErrVersionConflict
	}

	if err := writeAtomic(p, body); err != nil {
		return "", err
	}
	return contentVersion(body), nil
}

// List walks the directory under prefix.
func (s *ObjectStore) List(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	var out []ports.ObjectInfo
	err := filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, ports.ObjectInfo{Key: key, Filename: strings.TrimPrefix(key, prefix), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete removes key.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return ports.ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func contentVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
