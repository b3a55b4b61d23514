package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

// LogHooks logs every engine event at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "session_id", e.SessionID, "node_id", e.NodeID, "type", e.NodeType)
		},
		OnAnswer: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.DebugContext(ctx, "answer", "session_id", e.SessionID, "node_id", e.NodeID, "answer", e.Answer)
		},
		OnFlowEnd: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "flow_end", "session_id", e.SessionID, "node_id", e.NodeID)
		},
	}
}

// LogEditorHooks logs every saved edit.
func LogEditorHooks(logger *slog.Logger) editor.Hooks {
	return editor.Hooks{
		OnEdit: func(ctx context.Context, op string, doc *domain.Document) {
			logger.InfoContext(ctx, "flowchart edited", "op", op, "key", doc.Key, "version", doc.Version)
		},
	}
}

// Combine merges engine hooks; each callback runs in the given order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range hooks {
		if h.OnNodeEnter != nil {
			prev, fn := out.OnNodeEnter, h.OnNodeEnter
			out.OnNodeEnter = func(ctx context.Context, e *domain.NodeEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				fn(ctx, e)
			}
		}
		if h.OnAnswer != nil {
			prev, fn := out.OnAnswer, h.OnAnswer
			out.OnAnswer = func(ctx context.Context, e *domain.AnswerEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				fn(ctx, e)
			}
		}
		if h.OnFlowEnd != nil {
			prev, fn := out.OnFlowEnd, h.OnFlowEnd
			out.OnFlowEnd = func(ctx context.Context, e *domain.NodeEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				fn(ctx, e)
			}
		}
	}
	return out
}

// CombineEditor merges editor hooks.
func CombineEditor(hooks ...editor.Hooks) editor.Hooks {
	var out editor.Hooks
	for _, h := range hooks {
		if h.OnEdit == nil {
			continue
		}
		prev, fn := out.OnEdit, h.OnEdit
		out.OnEdit = func(ctx context.Context, op string, doc *domain.Document) {
			if prev != nil {
				prev(ctx, op, doc)
			}
			fn(ctx, op, doc)
		}
	}
	return out
}
