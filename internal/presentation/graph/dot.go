package graph

import (
	"github.com/aretw0/arbor/internal/layout"
	"github.com/aretw0/arbor/pkg/domain"
)

// GenerateDOT renders fc as a Graphviz digraph with the same overlay colours
// as the Mermaid export.
func GenerateDOT(fc *domain.Flowchart, overlay *GraphOverlay) (string, error) {
	visited := map[string]bool{}
	current := ""
	if overlay != nil {
		for _, id := range overlay.VisitedNodes {
			visited[id] = true
		}
		current = overlay.CurrentNode
	}

	return layout.EncodeDOT(layout.Build(fc), func(n layout.Node, attrs map[string]string) {
		switch {
		case n.ID == current:
			attrs["style"] = layout.Quote("filled,bold")
			attrs["fillcolor"] = layout.Quote("#ffeb3b")
		case visited[n.ID]:
			attrs["style"] = layout.Quote("filled")
			attrs["fillcolor"] = layout.Quote("#e1f5fe")
		}
	})
}
