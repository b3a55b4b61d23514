package domain

// StateDiff represents the changes between two states.
// It is serialized to JSON and pushed to subscribers of a session.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentNodeID *string `json:"current_node_id,omitempty"`

	IsEnd *bool `json:"is_end,omitempty"`

	// History carries appended entries, or the full log after Back rewrote it.
	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the history log.
type HistoryDelta struct {
	Appended []HistoryEntry `json:"appended,omitempty"`
	// Reset is set when entries were removed; Appended then holds the whole log.
	Reset bool `json:"reset,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.CurrentNodeID != newState.CurrentNodeID {
		diff.CurrentNodeID = &newState.CurrentNodeID
	}
	if oldState == nil {
		if newState.IsEnd {
			diff.IsEnd = &newState.IsEnd
		}
	} else if oldState.IsEnd != newState.IsEnd {
		diff.IsEnd = &newState.IsEnd
	}

	diff.History = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffHistory(old *State, new *State) *HistoryDelta {
	if old == nil {
		if len(new.History) == 0 {
			return nil
		}
		return &HistoryDelta{Appended: new.History}
	}

	oldLen := len(old.History)
	newLen := len(new.History)

	if newLen >= oldLen && samePrefix(old.History, new.History) {
		if newLen == oldLen {
			return nil
		}
		return &HistoryDelta{Appended: new.History[oldLen:]}
	}

	return &HistoryDelta{Appended: new.History, Reset: true}
}

func samePrefix(prefix, full []HistoryEntry) bool {
	for i := range prefix {
		if prefix[i] != full[i] {
			return false
		}
	}
	return true
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.IsEnd == nil &&
		d.History == nil
}
