package layout

import (
	"context"
	"sort"
)

// Layered is a built-in top-to-bottom layered layout. Ranks come from the
// longest path from the sources, order within a rank from barycentre sweeps.
type Layered struct {
	Sweeps int
}

// Layout implements Engine.
func (l Layered) Layout(ctx context.Context, g *Graph) error {
	if len(g.Nodes) == 0 {
		return nil
	}
	sweeps := l.Sweeps
	if sweeps <= 0 {
		sweeps = 4
	}

	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, dup := index[n.ID]; !dup {
			index[n.ID] = i
		}
	}
	succ, pred := acyclicEdges(g, index)
	rank := longestPath(len(g.Nodes), succ, pred)

	var layers [][]int
	for v, r := range rank {
		for len(layers) <= r {
			layers = append(layers, nil)
		}
		layers[r] = append(layers[r], v)
	}

	pos := make([]float64, len(g.Nodes))
	reindex := func(layer []int) {
		for i, v := range layer {
			pos[v] = float64(i)
		}
	}
	for _, layer := range layers {
		reindex(layer)
	}
	for s := 0; s < sweeps; s++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for r := 1; r < len(layers); r++ {
			orderByBarycentre(layers[r], pred, pos)
			reindex(layers[r])
		}
		for r := len(layers) - 2; r >= 0; r-- {
			orderByBarycentre(layers[r], succ, pos)
			reindex(layers[r])
		}
	}

	boxW := float64(NodeWidth + PadX)
	boxH := float64(NodeHeight + PadY)
	widest := 0
	for _, layer := range layers {
		widest = max(widest, len(layer))
	}
	span := func(n int) float64 { return float64(n)*boxW + float64(max(n-1, 0))*NodeSep }

	for r, layer := range layers {
		offset := (span(widest) - span(len(layer))) / 2
		cy := Margin + boxH/2 + float64(r)*(boxH+RankSep)
		for i, v := range layer {
			cx := Margin + offset + boxW/2 + float64(i)*(boxW+NodeSep)
			g.Nodes[v].place(cx, cy)
		}
	}
	return nil
}

// acyclicEdges returns adjacency lists with back edges removed, found by a
// depth-first walk in node order.
func acyclicEdges(g *Graph, index map[string]int) (succ, pred [][]int) {
	n := len(g.Nodes)
	out := make([][]int, n)
	seen := make(map[[2]int]bool)
	for _, e := range g.Edges {
		s, ok1 := index[e.Source]
		t, ok2 := index[e.Target]
		if !ok1 || !ok2 || s == t || seen[[2]int{s, t}] {
			continue
		}
		seen[[2]int{s, t}] = true
		out[s] = append(out[s], t)
	}

	const (
		white = iota
		grey
		black
	)
	color := make([]int, n)
	succ = make([][]int, n)
	pred = make([][]int, n)
	var visit func(v int)
	visit = func(v int) {
		color[v] = grey
		for _, w := range out[v] {
			if color[w] == grey {
				continue
			}
			succ[v] = append(succ[v], w)
			pred[w] = append(pred[w], v)
			if color[w] == white {
				visit(w)
			}
		}
		color[v] = black
	}
	for v := 0; v < n; v++ {
		if color[v] == white {
			visit(v)
		}
	}
	return succ, pred
}

func longestPath(n int, succ, pred [][]int) []int {
	rank := make([]int, n)
	indeg := make([]int, n)
	for v := range pred {
		indeg[v] = len(pred[v])
	}
	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range succ[v] {
			rank[w] = max(rank[w], rank[v]+1)
			indeg[w]--
			if indeg[w] == 0 {
				queue = append(queue, w)
			}
		}
	}
	return rank
}

func orderByBarycentre(layer []int, adj [][]int, pos []float64) {
	keys := make(map[int]float64, len(layer))
	for _, v := range layer {
		if len(adj[v]) == 0 {
			keys[v] = pos[v]
			continue
		}
		sum := 0.0
		for _, w := range adj[v] {
			sum += pos[w]
		}
		keys[v] = sum / float64(len(adj[v]))
	}
	sort.SliceStable(layer, func(i, j int) bool { return keys[layer[i]] < keys[layer[j]] })
}
