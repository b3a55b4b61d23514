package arbor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
)

// Version of the arbor module.
const Version = "0.4.0"

// View is what a player surface shows for a session.
type View = runtime.View

// DiffListener receives the changes of every persisted session step.
type DiffListener func(context.Context, *domain.StateDiff)

// Player walks flowcharts from a catalog and keeps one persisted state per session.
type Player struct {
	catalog   *catalog.Repository
	engine    *runtime.Engine
	sessions  *session.Manager
	hooks     domain.LifecycleHooks
	locker    ports.DistributedLocker
	listeners []DiffListener
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Player.
type Option func(*Player)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks on the traversal engine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Player) {
		p.hooks = hooks
	}
}

// WithLocker serializes sessions across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(p *Player) {
		p.locker = locker
	}
}

// WithDiffListener registers a listener for session changes.
func WithDiffListener(l DiffListener) Option {
	return func(p *Player) {
		if l != nil {
			p.listeners = append(p.listeners, l)
		}
	}
}

// New creates a Player over a catalog and a session store.
func New(repo *catalog.Repository, store ports.StateStore, opts ...Option) *Player {
	p := &Player{
		catalog: repo,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.engine = runtime.NewEngine(
		runtime.WithLogger(p.logger),
		runtime.WithLifecycleHooks(p.hooks),
	)
	sessionOpts := []session.Option{session.WithLogger(p.logger)}
	if p.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(p.locker))
	}
	p.sessions = session.NewManager(store, sessionOpts...)
	return p
}

// Catalog returns the repository the player reads flowcharts from.
func (p *Player) Catalog() *catalog.Repository { return p.catalog }

// Start opens a session on the flowchart under key, or on the one the catalog
// resolves when key is empty. An empty sessionID gets a generated one.
func (p *Player) Start(ctx context.Context, key, sessionID string) (*View, error) {
	doc, err := p.catalog.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = session.NewID()
	}

	state, err := p.engine.Restart(ctx, doc.Flowchart, &domain.State{SessionID: sessionID, FlowchartKey: doc.Key})
	if err != nil {
		return nil, err
	}
	if err := p.sessions.Create(ctx, sessionID, state); err != nil {
		return nil, err
	}
	p.logger.Info("session started", "session_id", sessionID, "flowchart", doc.Key)
	p.notify(ctx, domain.Diff(nil, state))
	return p.engine.Render(doc.Flowchart, state)
}

// Resume continues a stored session, or starts it when the id is unknown.
// The boolean reports whether an existing session was resumed.
func (p *Player) Resume(ctx context.Context, key, sessionID string) (*View, bool, error) {
	if sessionID != "" {
		v, err := p.View(ctx, sessionID)
		if err == nil {
			return v, true, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, false, err
		}
	}
	v, err := p.Start(ctx, key, sessionID)
	return v, false, err
}

// Answer records yes or no on the current question.
func (p *Player) Answer(ctx context.Context, sessionID, choice string) (*View, error) {
	return p.step(ctx, sessionID, func(fc *domain.Flowchart, s *domain.State) (*domain.State, error) {
		return p.engine.Answer(ctx, fc, s, choice)
	})
}

// Next follows the link of the current info node.
func (p *Player) Next(ctx context.Context, sessionID string) (*View, error) {
	return p.step(ctx, sessionID, func(fc *domain.Flowchart, s *domain.State) (*domain.State, error) {
		return p.engine.Next(ctx, fc, s)
	})
}

// Back undoes the last decision.
func (p *Player) Back(ctx context.Context, sessionID string) (*View, error) {
	return p.step(ctx, sessionID, func(fc *domain.Flowchart, s *domain.State) (*domain.State, error) {
		return p.engine.Back(ctx, fc, s)
	})
}

// Restart returns the session to the entry node with an empty history.
func (p *Player) Restart(ctx context.Context, sessionID string) (*View, error) {
	return p.step(ctx, sessionID, func(fc *domain.Flowchart, s *domain.State) (*domain.State, error) {
		return p.engine.Restart(ctx, fc, s)
	})
}

// View renders the session. End detection is re-run first since the
// flowchart may have been edited since the last step.
func (p *Player) View(ctx context.Context, sessionID string) (*View, error) {
	return p.step(ctx, sessionID, func(fc *domain.Flowchart, s *domain.State) (*domain.State, error) {
		return p.engine.Refresh(ctx, fc, s)
	})
}

// Session returns the stored state together with the document it plays.
func (p *Player) Session(ctx context.Context, sessionID string) (*domain.State, *domain.Document, error) {
	state, err := p.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := p.document(ctx, state)
	if err != nil {
		return state, nil, err
	}
	return state, doc, nil
}

// History returns the recorded decisions of a session.
func (p *Player) History(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	state, err := p.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return state.History, nil
}

// Sessions lists the stored session ids.
func (p *Player) Sessions(ctx context.Context) ([]string, error) {
	return p.sessions.List(ctx)
}

// Delete removes a session.
func (p *Player) Delete(ctx context.Context, sessionID string) error {
	return p.sessions.Delete(ctx, sessionID)
}

func (p *Player) step(ctx context.Context, sessionID string, fn func(*domain.Flowchart, *domain.State) (*domain.State, error)) (*View, error) {
	var fc *domain.Flowchart
	before, after, err := p.sessions.Update(ctx, sessionID, func(cur *domain.State) (*domain.State, error) {
		doc, err := p.document(ctx, cur)
		if err != nil {
			return nil, err
		}
		fc = doc.Flowchart
		next, err := fn(fc, cur)
		if err != nil {
			return nil, err
		}
		next.FlowchartKey = doc.Key
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	p.notify(ctx, domain.Diff(before, after))
	return p.engine.Render(fc, after)
}

// document loads the flowchart a session plays. Sessions without a recorded
// key fall back to the catalog's resolution order.
func (p *Player) document(ctx context.Context, state *domain.State) (*domain.Document, error) {
	if state.FlowchartKey != "" {
		return p.catalog.Load(ctx, state.FlowchartKey)
	}
	doc, err := p.catalog.Resolve(ctx, "")
	if errors.Is(err, domain.ErrFlowchartNotFound) {
		p.logger.Warn("session has no flowchart", "session_id", state.SessionID)
	}
	return doc, err
}

func (p *Player) notify(ctx context.Context, diff *domain.StateDiff) {
	if diff == nil {
		return
	}
	for _, l := range p.listeners {
		l(ctx, diff)
	}
}
