package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"
)

const graphName = "flowchart"

// Decorator adds DOT attributes for a node before it is written.
type Decorator func(n Node, attrs map[string]string)

// DOTName is the DOT identifier used for the node at position i.
func DOTName(i int) string { return "n" + strconv.Itoa(i) }

// EncodeDOT writes g as a top-to-bottom DOT digraph. Node identifiers are
// positional so arbitrary ids never need escaping; the original id is kept
// in the id attribute.
func EncodeDOT(g *Graph, decorate Decorator) (string, error) {
	out := gographviz.NewGraph()
	if err := out.SetName(graphName); err != nil {
		return "", err
	}
	if err := out.SetDir(true); err != nil {
		return "", err
	}
	for k, v := range map[string]string{
		"rankdir": "TB",
		"nodesep": inches(NodeSep),
		"ranksep": inches(RankSep),
	} {
		if err := out.AddAttr(graphName, k, v); err != nil {
			return "", err
		}
	}

	names := make(map[string]string, len(g.Nodes))
	for i, n := range g.Nodes {
		name := DOTName(i)
		if _, dup := names[n.ID]; !dup {
			names[n.ID] = name
		}
		attrs := map[string]string{
			"id":    Quote(n.ID),
			"label": Quote(n.Label),
			"shape": "box",
		}
		if n.Class == ClassDecision {
			attrs["style"] = Quote("rounded,filled")
			attrs["fillcolor"] = Quote("#e3f2fd")
		}
		if decorate != nil {
			decorate(n, attrs)
		}
		if err := out.AddNode(graphName, name, attrs); err != nil {
			return "", fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range g.Edges {
		src, ok1 := names[e.Source]
		dst, ok2 := names[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		if err := out.AddEdge(src, dst, true, map[string]string{"label": Quote(e.Label)}); err != nil {
			return "", fmt.Errorf("edge %s: %w", e.ID, err)
		}
	}
	return out.String(), nil
}

// Quote renders s as a DOT string literal.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

func inches(points float64) string {
	return strconv.FormatFloat(points/72, 'f', 4, 64)
}
