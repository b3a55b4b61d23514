package editor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
)

// Store loads and saves whole flowchart documents.
type Store interface {
	Load(ctx context.Context, key string) (*domain.Document, error)
	// Save writes doc with doc.Version as precondition and updates doc.Version.
	Save(ctx context.Context, doc *domain.Document) error
	Create(ctx context.Context, fc *domain.Flowchart) (*domain.Document, error)
}

// Op names passed to hooks.
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
	OpNewChart   = "new_flowchart"
)

// Hooks observe successful edits.
type Hooks struct {
	OnEdit func(ctx context.Context, op string, doc *domain.Document)
}

// Result is returned by every successful edit.
type Result struct {
	Document *domain.Document `json:"document"`
	Node     *domain.Node     `json:"node,omitempty"`
	Created  *domain.Node     `json:"created,omitempty"`
	Message  string           `json:"message"`
}

// Service applies edits to stored documents. Each edit loads the document,
// applies the change and saves it back with the loaded version as
// precondition, so a concurrent writer causes ErrVersionConflict instead of a
// silent overwrite.
type Service struct {
	store  Store
	logger *slog.Logger
	hooks  Hooks
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHooks registers edit callbacks.
func WithHooks(h Hooks) Option {
	return func(s *Service) { s.hooks = h }
}

// NewService creates an editing service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EditOption customizes a single edit.
type EditOption func(*editConfig)

type editConfig struct {
	ifMatch string
}

// IfMatch rejects the edit unless the stored document is still at version.
func IfMatch(version string) EditOption {
	return func(c *editConfig) { c.ifMatch = version }
}

// CreateNode appends a new node.
func (s *Service) CreateNode(ctx context.Context, key string, raw RawNode, opts ...EditOption) (*Result, error) {
	var node domain.Node
	doc, err := s.apply(ctx, key, OpCreate, opts, func(fc *domain.Flowchart) (*domain.Flowchart, error) {
		out, n, err := Create(fc, raw)
		node = n
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return &Result{Document: doc, Node: &node, Message: "New node added successfully!"}, nil
}

// UpdateNode replaces the fields of an existing node.
func (s *Service) UpdateNode(ctx context.Context, key, id string, raw RawNode, opts ...EditOption) (*Result, error) {
	var node domain.Node
	doc, err := s.apply(ctx, key, OpUpdate, opts, func(fc *domain.Flowchart) (*domain.Flowchart, error) {
		out, n, err := Update(fc, id, raw)
		node = n
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return &Result{Document: doc, Node: &node, Message: "Node updated successfully!"}, nil
}

// DeleteNode removes a node and clears links to it.
func (s *Service) DeleteNode(ctx context.Context, key, id string, opts ...EditOption) (*Result, error) {
	var node domain.Node
	doc, err := s.apply(ctx, key, OpDelete, opts, func(fc *domain.Flowchart) (*domain.Flowchart, error) {
		out, n, err := Delete(fc, id)
		node = n
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return &Result{Document: doc, Node: &node, Message: "Node deleted successfully!"}, nil
}

// Connect sets a link on a node, creating the target when it is free text.
func (s *Service) Connect(ctx context.Context, key, sourceID string, field domain.LinkField, target string, opts ...EditOption) (*Result, error) {
	var created *domain.Node
	doc, err := s.apply(ctx, key, OpConnect, opts, func(fc *domain.Flowchart) (*domain.Flowchart, error) {
		out, c, err := Connect(fc, sourceID, field, target)
		created = c
		return out, err
	})
	if err != nil {
		return nil, err
	}
	node, _ := doc.Flowchart.FindByID(sourceID)
	return &Result{Document: doc, Node: &node, Created: created, Message: "Connections updated successfully!"}, nil
}

// Disconnect clears a link on a node.
func (s *Service) Disconnect(ctx context.Context, key, sourceID string, field domain.LinkField, opts ...EditOption) (*Result, error) {
	doc, err := s.apply(ctx, key, OpDisconnect, opts, func(fc *domain.Flowchart) (*domain.Flowchart, error) {
		return Disconnect(fc, sourceID, field)
	})
	if err != nil {
		return nil, err
	}
	node, _ := doc.Flowchart.FindByID(sourceID)
	return &Result{Document: doc, Node: &node, Message: "Connections updated successfully!"}, nil
}

// NewFlowchart validates and stores a new named flowchart.
func (s *Service) NewFlowchart(ctx context.Context, name string, raws []RawNode) (*Result, error) {
	fc, err := Build(name, raws)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	fc.CreatedAt = &now
	doc, err := s.store.Create(ctx, fc)
	if err != nil {
		return nil, err
	}
	s.logger.Info("flowchart created", "key", doc.Key, "nodes", len(fc.Nodes))
	if s.hooks.OnEdit != nil {
		s.hooks.OnEdit(ctx, OpNewChart, doc)
	}
	return &Result{Document: doc, Message: "Flowchart saved successfully!"}, nil
}

// Check loads a document and lints it.
func (s *Service) Check(ctx context.Context, key string) ([]Issue, error) {
	doc, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return Check(doc.Flowchart), nil
}

func (s *Service) apply(ctx context.Context, key, op string, opts []EditOption, fn func(*domain.Flowchart) (*domain.Flowchart, error)) (*domain.Document, error) {
	var cfg editConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	doc, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if cfg.ifMatch != "" && cfg.ifMatch != doc.Version {
		return nil, fmt.Errorf("%w: %s is at version %s, not %s", domain.ErrVersionConflict, key, doc.Version, cfg.ifMatch)
	}

	out, err := fn(doc.Flowchart)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	out.LastModified = &now

	next := &domain.Document{Key: doc.Key, Version: doc.Version, Flowchart: out}
	if err := s.store.Save(ctx, next); err != nil {
		s.logger.Warn("edit not saved", "op", op, "key", key, "error", err)
		return nil, err
	}
	s.logger.Info("flowchart edited", "op", op, "key", key, "version", next.Version)
	if s.hooks.OnEdit != nil {
		s.hooks.OnEdit(ctx, op, next)
	}
	return next, nil
}
