package editor

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Issue codes reported by Check.
const (
	IssueEmpty         = "empty"
	IssueDuplicateID   = "duplicate_id"
	IssueDuplicateText = "duplicate_text"
	IssueDangling      = "dangling_link"
	IssueMisplacedLink = "misplaced_link"
	IssueInvalidType   = "invalid_type"
	IssueMissingText   = "missing_text"
	IssueUnreachable   = "unreachable"
)

// Severity of an issue. Errors break traversal, warnings do not.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is one finding about a flowchart.
type Issue struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	NodeID   string `json:"node_id,omitempty"`
	Message  string `json:"message"`
}

// Check inspects a stored flowchart for problems the editor would not allow
// but older or hand-edited documents may contain.
func Check(fc *domain.Flowchart) []Issue {
	if fc == nil || len(fc.Nodes) == 0 {
		return []Issue{{Code: IssueEmpty, Severity: SeverityError, Message: "flowchart has no nodes"}}
	}

	var issues []Issue
	add := func(code, sev, id, format string, args ...any) {
		issues = append(issues, Issue{Code: code, Severity: sev, NodeID: id, Message: fmt.Sprintf(format, args...)})
	}

	ids := make(map[string]bool)
	texts := make(map[string]bool)
	for _, n := range fc.Nodes {
		if ids[n.ID] {
			add(IssueDuplicateID, SeverityError, n.ID, "id %q is used by more than one node", n.ID)
		}
		ids[n.ID] = true
		if n.Text == "" {
			add(IssueMissingText, SeverityError, n.ID, "node has no text")
		} else if texts[n.Text] {
			add(IssueDuplicateText, SeverityWarning, n.ID, "text %q is used by more than one node; links resolve to the first", n.Text)
		}
		texts[n.Text] = true
		if n.Type != domain.NodeTypeYesNo && n.Type != domain.NodeTypeInfo {
			add(IssueInvalidType, SeverityError, n.ID, "unknown type %q", n.Type)
		}
	}

	for _, n := range fc.Nodes {
		for _, l := range n.Links() {
			if !l.Field.AllowedOn(n.Type) {
				add(IssueMisplacedLink, SeverityWarning, n.ID, "%s link is ignored on %s nodes", l.Field, n.Type)
			}
			if !texts[l.Target] {
				add(IssueDangling, SeverityError, n.ID, "%s points at %q which matches no node", l.Field, l.Target)
			}
		}
	}

	reached := Reachable(fc)
	for _, n := range fc.Nodes {
		if !reached[n.ID] {
			add(IssueUnreachable, SeverityWarning, n.ID, "node %q cannot be reached from the start", n.Text)
		}
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Reachable crawls the links from the entry node and returns the ids visited.
func Reachable(fc *domain.Flowchart) map[string]bool {
	visited := make(map[string]bool)
	entry, err := fc.Entry()
	if err != nil {
		return visited
	}
	queue := []domain.Node{entry}
	visited[entry.ID] = true

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, l := range n.Links() {
			if !l.Field.AllowedOn(n.Type) {
				continue
			}
			next, err := fc.FindByText(l.Target)
			if err != nil || visited[next.ID] {
				continue
			}
			visited[next.ID] = true
			queue = append(queue, next)
		}
	}
	return visited
}
