// Package catalog maps flowchart documents onto an object store: key layout,
// encoding, listing and the last-viewed cache slot.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
	"github.com/aretw0/arbor/pkg/ports"
)

const (
	// DefaultKey holds the primary flowchart.
	DefaultKey = "flowchart.json"
	// DefaultPrefix holds named flowcharts.
	DefaultPrefix = "flowcharts/"
	// CacheSlot is the slot that remembers the last opened flowchart.
	CacheSlot = "current"
)

var timestampSuffix = regexp.MustCompile(`-(\d+)\.(json|ya?ml)$`)

// Entry is one listed flowchart.
type Entry struct {
	Key          string    `json:"key"`
	Filename     string    `json:"filename"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	LastModified time.Time `json:"last_modified"`
}

// Repository reads and writes flowchart documents.
type Repository struct {
	objects    ports.ObjectStore
	cache      ports.Cache
	logger     *slog.Logger
	now        func() time.Time
	defaultKey string
	prefix     string
}

// Option configures a Repository.
type Option func(*Repository)

// WithCache enables the last-viewed slot.
func WithCache(c ports.Cache) Option {
	return func(r *Repository) { r.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDefaultKey overrides the primary document key.
func WithDefaultKey(key string) Option {
	return func(r *Repository) {
		if key != "" {
			r.defaultKey = key
		}
	}
}

// WithPrefix overrides where named flowcharts live.
func WithPrefix(prefix string) Option {
	return func(r *Repository) {
		if prefix != "" {
			r.prefix = strings.TrimSuffix(prefix, "/") + "/"
		}
	}
}

// WithClock overrides the time source used for new keys.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// New creates a repository over objects.
func New(objects ports.ObjectStore, opts ...Option) *Repository {
	r := &Repository{
		objects:    objects,
		logger:     logging.NewNop(),
		now:        time.Now,
		defaultKey: DefaultKey,
		prefix:     DefaultPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultKey returns the primary document key.
func (r *Repository) DefaultKey() string { return r.defaultKey }

// Load reads and decodes a document.
func (r *Repository) Load(ctx context.Context, key string) (*domain.Document, error) {
	if key == "" {
		key = r.defaultKey
	}
	obj, err := r.objects.Get(ctx, key)
	if err != nil {
		return nil, r.wrap("get", key, err)
	}
	fc, err := Decode(obj.Body, FormatForKey(key))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &domain.Document{Key: key, Version: obj.Version, Flowchart: fc}, nil
}

// Save writes doc. A document without a version must not exist yet; one with
// a version must still be at that version.
func (r *Repository) Save(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.Flowchart == nil {
		return &domain.ValidationError{Reason: "invalid flowchart data"}
	}
	body, err := Encode(doc.Flowchart, FormatForKey(doc.Key))
	if err != nil {
		return fmt.Errorf("encoding %s: %w", doc.Key, err)
	}
	v, err := r.objects.Put(ctx, doc.Key, body, ports.PutOptions{IfMatch: doc.Version, IfNoneMatch: doc.Version == ""})
	if err != nil {
		return r.wrap("put", doc.Key, err)
	}
	r.logger.Debug("document saved", "key", doc.Key, "version", v)
	doc.Version = v
	return nil
}

// Create stores fc under a new timestamped key in the flowcharts prefix.
func (r *Repository) Create(ctx context.Context, fc *domain.Flowchart) (*domain.Document, error) {
	doc := &domain.Document{Key: r.NewKey(fc.Name), Flowchart: fc}
	if err := r.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// NewKey builds "<prefix><slug>-<unix ms>.json".
func (r *Repository) NewKey(name string) string {
	return fmt.Sprintf("%s%s-%d.json", r.prefix, slug(name), r.now().UnixMilli())
}

// Delete removes a document.
func (r *Repository) Delete(ctx context.Context, key string) error {
	if err := r.objects.Delete(ctx, key); err != nil {
		return r.wrap("delete", key, err)
	}
	return nil
}

// List returns the named flowcharts, oldest first by the timestamp in their
// filename. Display names come from the documents, falling back to the
// filename without its timestamp.
func (r *Repository) List(ctx context.Context) ([]Entry, error) {
	infos, err := r.objects.List(ctx, r.prefix)
	if err != nil {
		return nil, r.wrap("list", r.prefix, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		e := Entry{
			Key:          info.Key,
			Filename:     info.Filename,
			DisplayName:  timestampSuffix.ReplaceAllString(info.Filename, ""),
			LastModified: info.LastModified,
		}
		if ms, ok := filenameMillis(info.Filename); ok {
			e.CreatedAt = time.UnixMilli(ms).UTC()
		}
		if doc, err := r.Load(ctx, info.Key); err == nil && doc.Flowchart.Name != "" {
			e.DisplayName = doc.Flowchart.Name
		} else if err != nil {
			r.logger.Warn("could not read flowchart for listing", "key", info.Key, "error", err)
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// Open loads a document and remembers it in the last-viewed slot.
func (r *Repository) Open(ctx context.Context, key string) (*domain.Document, error) {
	doc, err := r.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, CacheSlot, &ports.CacheEntry{Key: doc.Key, Flowchart: doc.Flowchart}); err != nil {
			r.logger.Warn("could not update last viewed flowchart", "key", doc.Key, "error", err)
		}
	}
	return doc, nil
}

// Resolve picks the document to play: the explicit key when given, then the
// last viewed one, then the oldest named flowchart, then the default key.
func (r *Repository) Resolve(ctx context.Context, key string) (*domain.Document, error) {
	if key != "" {
		return r.Open(ctx, key)
	}

	if r.cache != nil {
		if entry, err := r.cache.Get(ctx, CacheSlot); err == nil && entry.Key != "" {
			doc, err := r.Load(ctx, entry.Key)
			if err == nil {
				return doc, nil
			}
			if !errors.Is(err, domain.ErrFlowchartNotFound) {
				return nil, err
			}
		}
	}

	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return r.Open(ctx, entries[0].Key)
	}
	return r.Open(ctx, r.defaultKey)
}

// Import validates an external document and stores it. An empty key derives
// one from the document name. Existing keys are only replaced with overwrite.
func (r *Repository) Import(ctx context.Context, key string, data []byte, overwrite bool) (*domain.Document, error) {
	parsed, err := Decode(data, Sniff(data))
	if err != nil {
		return nil, err
	}
	raws := make([]editor.RawNode, 0, len(parsed.Nodes))
	for _, n := range parsed.Nodes {
		raws = append(raws, editor.RawFromNode(n))
	}
	name := parsed.Name
	if name == "" {
		name = domain.DefaultFlowchartName
	}
	fc, err := editor.Build(name, raws)
	if err != nil {
		return nil, err
	}
	fc.CreatedAt = parsed.CreatedAt
	if fc.CreatedAt == nil {
		now := r.now().UTC()
		fc.CreatedAt = &now
	}

	if key == "" {
		key = r.NewKey(fc.Name)
	}
	doc := &domain.Document{Key: key, Flowchart: fc}
	if overwrite {
		if cur, err := r.objects.Get(ctx, key); err == nil {
			doc.Version = cur.Version
		}
	}
	if err := r.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Repository) wrap(op, key string, err error) error {
	switch {
	case errors.Is(err, ports.ErrObjectNotFound):
		return &domain.NotFoundError{Kind: "flowchart", Key: key}
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrStorage):
		return err
	}
	return &domain.StorageError{Op: op, Key: key, Err: err}
}

func filenameMillis(filename string) (int64, bool) {
	m := timestampSuffix.FindStringSubmatch(filename)
	if m == nil {
		return 0, false
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	return ms, err == nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "flowchart"
	}
	return s
}
