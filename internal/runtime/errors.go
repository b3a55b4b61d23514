package runtime

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// InvalidActionError is returned when an action does not apply to the current node.
type InvalidActionError struct {
	Action string
	NodeID string
	Reason string
}

func (e *InvalidActionError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("cannot %s: %s", e.Action, e.Reason)
	}
	return fmt.Sprintf("cannot %s on node %q: %s", e.Action, e.NodeID, e.Reason)
}

func (e *InvalidActionError) Unwrap() error { return domain.ErrInvalidAction }
