package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
)

// Engine walks a flowchart. It holds no session data: every operation takes
// the current state and returns a new one, leaving the input untouched.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for debug traces.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source used for state timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start positions a fresh walk on the entry node.
func (e *Engine) Start(ctx context.Context, fc *domain.Flowchart) (*domain.State, error) {
	return e.begin(ctx, fc, "", "")
}

// Restart begins the walk again on the same flowchart, keeping the session identity.
func (e *Engine) Restart(ctx context.Context, fc *domain.Flowchart, current *domain.State) (*domain.State, error) {
	if current == nil {
		return e.Start(ctx, fc)
	}
	return e.begin(ctx, fc, current.SessionID, current.FlowchartKey)
}

func (e *Engine) begin(ctx context.Context, fc *domain.Flowchart, sessionID, key string) (*domain.State, error) {
	entry, err := fc.Entry()
	if err != nil {
		return nil, err
	}
	state := domain.NewState(entry.ID)
	state.SessionID = sessionID
	state.FlowchartKey = key
	e.enter(ctx, state, entry)
	return state, nil
}

// Answer records a yes or no decision on the current question and follows that branch.
//
// An unconnected branch ends the walk on the current node. A branch whose target
// text matches no node returns a NotFoundError and the state is left as it was.
func (e *Engine) Answer(ctx context.Context, fc *domain.Flowchart, current *domain.State, choice string) (*domain.State, error) {
	if choice != domain.AnswerYes && choice != domain.AnswerNo {
		return nil, &InvalidActionError{Action: choice, Reason: "answer must be yes or no"}
	}
	node, err := e.currentNode(fc, current)
	if err != nil {
		return nil, err
	}
	if current.IsEnd {
		return nil, &InvalidActionError{Action: choice, NodeID: node.ID, Reason: "the walk has ended"}
	}
	if node.Type != domain.NodeTypeYesNo {
		return nil, &InvalidActionError{Action: choice, NodeID: node.ID, Reason: "node is not a yes/no question"}
	}
	return e.follow(ctx, fc, current, node, node.Link(domain.LinkField(choice)), choice)
}

// Next follows the link of the current info node.
func (e *Engine) Next(ctx context.Context, fc *domain.Flowchart, current *domain.State) (*domain.State, error) {
	node, err := e.currentNode(fc, current)
	if err != nil {
		return nil, err
	}
	if node.Type != domain.NodeTypeInfo || node.Next == "" {
		return nil, &InvalidActionError{Action: "next", NodeID: node.ID, Reason: "node has no next step"}
	}
	return e.follow(ctx, fc, current, node, node.Next, domain.AnswerNext)
}

// Back undoes the most recent decision.
//
// When the walk has ended with an End marker, the marker is dropped first so a
// single Back returns to the question that led to the terminal node.
func (e *Engine) Back(ctx context.Context, fc *domain.Flowchart, current *domain.State) (*domain.State, error) {
	if current == nil {
		return nil, domain.ErrSessionNotFound
	}
	next := current.Clone()

	if last, ok := next.LastEntry(); ok && next.IsEnd && last.Answer == domain.AnswerEnd {
		next.History = next.History[:len(next.History)-1]
	}

	if len(next.History) == 0 {
		entry, err := fc.Entry()
		if err != nil {
			return nil, err
		}
		// A reset to the entry node leaves the walk open, even when the entry
		// node is itself terminal.
		e.logger.Debug("back", "from", current.CurrentNodeID, "to", entry.ID, "history", 0)
		next.IsEnd = false
		next.HasLoggedEnd = false
		e.arrive(ctx, next, entry)
		return next, nil
	}

	prev := next.History[len(next.History)-1]
	target, err := resolveEntry(fc, prev)
	if err != nil {
		return nil, err
	}
	next.History = next.History[:len(next.History)-1]

	e.logger.Debug("back", "from", current.CurrentNodeID, "to", target.ID, "history", len(next.History))
	next.CurrentNodeID = target.ID
	next.IsEnd = false
	next.HasLoggedEnd = false
	e.enter(ctx, next, target)
	return next, nil
}

// Refresh re-evaluates end detection on the current node without moving.
// Calling it repeatedly on a terminal node records the End marker only once.
func (e *Engine) Refresh(ctx context.Context, fc *domain.Flowchart, current *domain.State) (*domain.State, error) {
	node, err := e.currentNode(fc, current)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if node.IsTerminal() {
		e.markEnd(ctx, next, node)
	}
	return next, nil
}

func (e *Engine) follow(ctx context.Context, fc *domain.Flowchart, current *domain.State, node domain.Node, target, label string) (*domain.State, error) {
	var dest domain.Node
	if target != "" {
		found, err := fc.FindByText(target)
		if err != nil {
			e.logger.Warn("dangling link", "node_id", node.ID, "answer", label, "target", target)
			return nil, err
		}
		dest = found
	}

	next := current.Clone()
	e.record(ctx, next, domain.HistoryEntry{ID: node.ID, Question: node.Text, Answer: label})

	if target == "" {
		next.IsEnd = true
		next.UpdatedAt = e.now()
		return next, nil
	}

	next.CurrentNodeID = dest.ID
	e.enter(ctx, next, dest)
	return next, nil
}

// enter makes node current and runs end detection.
func (e *Engine) enter(ctx context.Context, state *domain.State, node domain.Node) {
	e.arrive(ctx, state, node)
	if node.IsTerminal() {
		e.markEnd(ctx, state, node)
		return
	}
	state.IsEnd = false
	state.HasLoggedEnd = false
}

func (e *Engine) arrive(ctx context.Context, state *domain.State, node domain.Node) {
	state.CurrentNodeID = node.ID
	state.UpdatedAt = e.now()
	e.logger.Debug("node enter", "node_id", node.ID, "type", node.Type)
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: state.UpdatedAt, Type: domain.EventNodeEnter, SessionID: state.SessionID},
			NodeID:    node.ID,
			NodeType:  node.Type,
		})
	}
}

func (e *Engine) markEnd(ctx context.Context, state *domain.State, node domain.Node) {
	state.IsEnd = true
	if state.HasLoggedEnd {
		return
	}
	state.HasLoggedEnd = true
	e.record(ctx, state, domain.HistoryEntry{ID: node.ID, Question: node.Text, Answer: domain.AnswerEnd})
	if e.hooks.OnFlowEnd != nil {
		e.hooks.OnFlowEnd(ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventFlowEnd, SessionID: state.SessionID},
			NodeID:    node.ID,
			NodeType:  node.Type,
		})
	}
}

func (e *Engine) record(ctx context.Context, state *domain.State, entry domain.HistoryEntry) {
	state.History = append(state.History, entry)
	if e.hooks.OnAnswer != nil {
		e.hooks.OnAnswer(ctx, &domain.AnswerEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventAnswer, SessionID: state.SessionID},
			NodeID:    entry.ID,
			Answer:    entry.Answer,
		})
	}
}

func (e *Engine) currentNode(fc *domain.Flowchart, state *domain.State) (domain.Node, error) {
	if state == nil {
		return domain.Node{}, domain.ErrSessionNotFound
	}
	return fc.FindByID(state.CurrentNodeID)
}

// resolveEntry finds the node a history entry was recorded on. The question
// text is the primary key; the id covers nodes renamed since the visit.
func resolveEntry(fc *domain.Flowchart, entry domain.HistoryEntry) (domain.Node, error) {
	if n, err := fc.FindByText(entry.Question); err == nil {
		return n, nil
	}
	return fc.FindByID(entry.ID)
}
