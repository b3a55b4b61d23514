package domain

import "time"

// HistoryEntry records one decision. Question is the node text at the time of
// the visit, so the log stays readable after the node is edited.
type HistoryEntry struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// State is the snapshot of a play session.
type State struct {
	// SessionID identifies the walk. Empty for in-memory walks.
	SessionID string `json:"session_id,omitempty"`

	// FlowchartKey is the storage key of the document being played.
	FlowchartKey string `json:"flowchart_key,omitempty"`

	// CurrentNodeID is the id of the active node.
	CurrentNodeID string `json:"current_node_id"`

	// History is append-only while walking forward; Back removes from its tail.
	History []HistoryEntry `json:"history"`

	// IsEnd is set once the walk can go no further.
	IsEnd bool `json:"is_end"`

	// HasLoggedEnd guards against recording the End marker twice for the same terminal node.
	HasLoggedEnd bool `json:"has_logged_end,omitempty"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`

	// Sealed holds the encrypted state when persisted through an encrypting store.
	// All other fields except SessionID and UpdatedAt are then empty.
	Sealed string `json:"sealed,omitempty"`
}

// NewState creates a clean state positioned on a node.
func NewState(startNodeID string) *State {
	return &State{
		CurrentNodeID: startNodeID,
		History:       []HistoryEntry{},
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append(make([]HistoryEntry, 0, len(s.History)), s.History...)
	return &c
}

// LastEntry returns the most recent history entry.
func (s *State) LastEntry() (HistoryEntry, bool) {
	if s == nil || len(s.History) == 0 {
		return HistoryEntry{}, false
	}
	return s.History[len(s.History)-1], true
}
