// Package layout positions flowchart nodes for drawing.
//
// Every node gets a fixed visible box; the layout reserves a padded box
// around it so labels do not collide. Positions are reported as the
// top-left corner of the visible box.
package layout

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Box and spacing constants, in points.
const (
	NodeWidth  = 180
	NodeHeight = 60
	PadX       = 50
	PadY       = 30
	NodeSep    = 100
	RankSep    = 80
	Margin     = 50
)

// Node classes used for styling.
const (
	ClassDecision = "decision"
	ClassInfo     = "info"
)

// Node is a positioned flowchart node.
type Node struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Subheading string  `json:"subheading,omitempty"`
	Class      string  `json:"class"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Edge joins two nodes by id and carries the answer that follows it.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Dangling is a link whose target text matches no node.
type Dangling struct {
	Source string           `json:"source"`
	Field  domain.LinkField `json:"field"`
	Target string           `json:"target"`
}

// Graph is the drawable form of a flowchart.
type Graph struct {
	Nodes    []Node     `json:"nodes"`
	Edges    []Edge     `json:"edges"`
	Dangling []Dangling `json:"dangling,omitempty"`
}

// Engine assigns positions to the nodes of g.
type Engine interface {
	Layout(ctx context.Context, g *Graph) error
}

// Build converts fc into a graph. Links to unknown texts are left out of the
// edges and reported in Dangling.
func Build(fc *domain.Flowchart) *Graph {
	g := &Graph{
		Nodes: make([]Node, 0, len(fc.Nodes)),
		Edges: []Edge{},
	}
	for _, n := range fc.Nodes {
		class := ClassInfo
		if n.Type == domain.NodeTypeYesNo || n.Yes != "" || n.No != "" {
			class = ClassDecision
		}
		g.Nodes = append(g.Nodes, Node{
			ID:         n.ID,
			Label:      n.Text,
			Subheading: n.Subheading,
			Class:      class,
			Width:      NodeWidth,
			Height:     NodeHeight,
		})
		for _, l := range n.Links() {
			target, err := fc.FindByText(l.Target)
			if err != nil {
				g.Dangling = append(g.Dangling, Dangling{Source: n.ID, Field: l.Field, Target: l.Target})
				continue
			}
			g.Edges = append(g.Edges, Edge{
				ID:     fmt.Sprintf("e%s-%s", n.ID, l.Field),
				Source: n.ID,
				Target: target.ID,
				Label:  string(l.Field),
			})
		}
	}
	return g
}

// place stores a layout centre as the top-left corner of the visible box.
func (n *Node) place(cx, cy float64) {
	n.X = cx - NodeWidth/2
	n.Y = cy - NodeHeight/2
}
