package layout

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/domain"
)

func sample() *domain.Flowchart {
	return &domain.Flowchart{Name: "Printer", Nodes: []domain.Node{
		{ID: "1", Text: "Is it plugged in?", Type: domain.NodeTypeYesNo, Yes: "Does it print?", No: "Plug it in"},
		{ID: "2", Text: "Does it print?", Type: domain.NodeTypeYesNo, Yes: "Done", No: "Call support"},
		{ID: "3", Text: "Plug it in", Type: domain.NodeTypeInfo, Next: "Does it print?"},
		{ID: "4", Text: "Done", Type: domain.NodeTypeInfo},
	}}
}

func TestBuild(t *testing.T) {
	g := Build(sample())

	require.Len(t, g.Nodes, 4)
	assert.Equal(t, ClassDecision, g.Nodes[0].Class)
	assert.Equal(t, ClassInfo, g.Nodes[2].Class)
	assert.Equal(t, float64(NodeWidth), g.Nodes[0].Width)

	assert.Equal(t, []Edge{
		{ID: "e1-yes", Source: "1", Target: "2", Label: "yes"},
		{ID: "e1-no", Source: "1", Target: "3", Label: "no"},
		{ID: "e2-yes", Source: "2", Target: "4", Label: "yes"},
		{ID: "e3-next", Source: "3", Target: "2", Label: "next"},
	}, g.Edges)
	assert.Equal(t, []Dangling{{Source: "2", Field: domain.LinkNo, Target: "Call support"}}, g.Dangling)
}

func TestLayered_RanksTopToBottom(t *testing.T) {
	g := Build(sample())
	require.NoError(t, Layered{}.Layout(context.Background(), g))

	y := map[string]float64{}
	for _, n := range g.Nodes {
		y[n.ID] = n.Y
	}
	rankStep := float64(NodeHeight + PadY + RankSep)

	assert.Equal(t, float64(Margin+PadY/2), y["1"], "entry sits on the first rank")
	assert.Equal(t, y["1"]+rankStep, y["3"])
	assert.Equal(t, y["3"]+rankStep, y["2"], "longest path puts 2 below 3")
	assert.Equal(t, y["2"]+rankStep, y["4"])
}

func TestLayered_SiblingsDoNotOverlap(t *testing.T) {
	fc := &domain.Flowchart{Nodes: []domain.Node{
		{ID: "a", Text: "A", Type: domain.NodeTypeYesNo, Yes: "B", No: "C"},
		{ID: "b", Text: "B", Type: domain.NodeTypeInfo},
		{ID: "c", Text: "C", Type: domain.NodeTypeInfo},
	}}
	g := Build(fc)
	require.NoError(t, Layered{}.Layout(context.Background(), g))

	b, c := g.Nodes[1], g.Nodes[2]
	assert.Equal(t, b.Y, c.Y)
	gap := c.X - b.X
	if gap < 0 {
		gap = -gap
	}
	assert.Equal(t, float64(NodeWidth+PadX+NodeSep), gap)
	assert.Equal(t, (b.X+c.X)/2, g.Nodes[0].X, "the parent is centred over its children")
}

func TestLayered_Cycle(t *testing.T) {
	fc := &domain.Flowchart{Nodes: []domain.Node{
		{ID: "a", Text: "A", Type: domain.NodeTypeInfo, Next: "B"},
		{ID: "b", Text: "B", Type: domain.NodeTypeInfo, Next: "A"},
	}}
	g := Build(fc)
	require.NoError(t, Layered{}.Layout(context.Background(), g))
	assert.Less(t, g.Nodes[0].Y, g.Nodes[1].Y)
}

func TestParsePlain(t *testing.T) {
	out := []byte(`graph 1 4.5 3
node n0 2.25 2.5 3.1944 1.25 "A" solid box black lightgrey
node n1 2.25 0.5 3.1944 1.25 "B b" solid box black lightgrey
edge n0 n1 4 2.25 1.87 2.25 1.5 2.25 1.4 2.25 1.13 yes 2.4 1.5 solid black
stop
`)
	c, err := parsePlain(out)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{Margin + 162, Margin + 36}, c["n0"])
	assert.Equal(t, [2]float64{Margin + 162, Margin + 180}, c["n1"])
}

func TestParsePlain_Malformed(t *testing.T) {
	_, err := parsePlain([]byte("graph 1 x\n"))
	assert.Error(t, err)
	_, err = parsePlain([]byte("graph 1 2 3\nnode n0 a b\n"))
	assert.Error(t, err)
}

func TestEncodeDOT(t *testing.T) {
	g := Build(sample())
	src, err := EncodeDOT(g, func(n Node, attrs map[string]string) {
		if n.ID == "4" {
			attrs["color"] = "red"
		}
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(strings.TrimSpace(src), "digraph flowchart"))
	assert.Contains(t, src, `label="Is it plugged in?"`)
	assert.Contains(t, src, "n0->n1")
	assert.Contains(t, src, "color=red")
	assert.NotContains(t, src, "Call support")
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"say \"hi\"\\"`, Quote(`say "hi"\`))
}

func TestAuto_FallsBackWithoutDot(t *testing.T) {
	eng, err := New(EngineAuto, "/nonexistent/dot", nil)
	require.NoError(t, err)

	g := Build(sample())
	require.NoError(t, eng.Layout(context.Background(), g))
	assert.Equal(t, float64(Margin+PadY/2), g.Nodes[0].Y)
}

func TestNew_Unknown(t *testing.T) {
	_, err := New("circo", "", nil)
	assert.Error(t, err)
}

func TestGraphviz_MissingBinary(t *testing.T) {
	err := Graphviz{DotPath: "/nonexistent/dot"}.Layout(context.Background(), Build(sample()))
	assert.Error(t, err)
}
