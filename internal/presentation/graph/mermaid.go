package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/internal/layout"
	"github.com/aretw0/arbor/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromState marks the nodes a session passed through.
func OverlayFromState(s *domain.State) *GraphOverlay {
	if s == nil {
		return nil
	}
	o := &GraphOverlay{CurrentNode: s.CurrentNodeID}
	for _, h := range s.History {
		o.VisitedNodes = append(o.VisitedNodes, h.ID)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart from a flowchart document.
// Decision nodes are drawn as rhombi and info nodes as rectangles; edges carry
// the answer that follows them. Links to unknown texts are not drawn.
func GenerateMermaid(fc *domain.Flowchart, overlay *GraphOverlay) string {
	g := layout.Build(fc)
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)
		opener, closer := "[", "]"
		if node.Class == layout.ClassDecision {
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.Label), closer)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "    %s -->|%s| %s\n", sanitizeMermaidID(e.Source), e.Label, sanitizeMermaidID(e.Target))
	}
	for _, d := range g.Dangling {
		fmt.Fprintf(&sb, "    %%%% %s.%s points at missing node %q\n", d.Source, d.Field, d.Target)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills under both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" && id != overlay.CurrentNode {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	if id == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("n_")
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	return strings.ReplaceAll(s, "\n", "<br/>")
}
