package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch reports keys written or removed under Root, including one level of
// subdirectories such as flowcharts/. The channel closes when ctx is done.
func (s *ObjectStore) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := os.MkdirAll(s.Root, 0755); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Add(s.Root); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Root, err)
	}
	entries, _ := os.ReadDir(s.Root)
	for _, e := range entries {
		if e.IsDir() {
			_ = w.Add(filepath.Join(s.Root, e.Name()))
		}
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if strings.HasPrefix(filepath.Base(ev.Name), "tmp-") {
					continue
				}
				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = w.Add(ev.Name)
						continue
					}
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				rel, err := filepath.Rel(s.Root, ev.Name)
				if err != nil {
					continue
				}
				select {
				case out <- filepath.ToSlash(rel):
				case <-ctx.Done():
					return
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}
