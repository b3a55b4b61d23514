package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventAnswer    EventType = "answer"
	EventFlowEnd   EventType = "flow_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// NodeEvent represents entry into a node or the end of a walk on it.
type NodeEvent struct {
	EventBase
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
}

// AnswerEvent represents a decision recorded in history.
type AnswerEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Answer string `json:"answer"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnAnswer    func(context.Context, *AnswerEvent)
	OnFlowEnd   func(context.Context, *NodeEvent)
}
