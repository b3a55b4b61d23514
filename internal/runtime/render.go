package runtime

import (
	"github.com/aretw0/arbor/pkg/domain"
)

// Action names accepted by the player surfaces.
const (
	ActionYes     = "yes"
	ActionNo      = "no"
	ActionNext    = "next"
	ActionBack    = "back"
	ActionRestart = "restart"
)

// View is what a player shows for the current state.
type View struct {
	SessionID    string                `json:"session_id"`
	FlowchartKey string                `json:"flowchart_key,omitempty"`
	Title        string                `json:"title"`
	Node         domain.Node           `json:"node"`
	IsEnd        bool                  `json:"is_end"`
	Actions      []string              `json:"actions"`
	CanBack      bool                  `json:"can_back"`
	History      []domain.HistoryEntry `json:"history"`
}

// Render computes the view of a state. It never changes the state.
func (e *Engine) Render(fc *domain.Flowchart, state *domain.State) (*View, error) {
	node, err := e.currentNode(fc, state)
	if err != nil {
		return nil, err
	}

	v := &View{
		SessionID:    state.SessionID,
		FlowchartKey: state.FlowchartKey,
		Title:        fc.Title(),
		Node:         node,
		IsEnd:        state.IsEnd,
		CanBack:      len(state.History) > 0,
		History:      state.History,
	}

	switch {
	case state.IsEnd:
		v.Actions = []string{ActionRestart}
	case node.Type == domain.NodeTypeYesNo:
		v.Actions = []string{ActionYes, ActionNo}
	case node.Next != "":
		v.Actions = []string{ActionNext}
	}
	if v.CanBack {
		v.Actions = append(v.Actions, ActionBack)
	}
	return v, nil
}
