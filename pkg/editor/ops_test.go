package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/domain"
)

func chart() *domain.Flowchart {
	return &domain.Flowchart{
		Name: "Devices",
		Nodes: []domain.Node{
			{ID: "1", Text: "Q1", Type: domain.NodeTypeYesNo, Yes: "Q2", No: "Q3"},
			{ID: "2", Text: "Q2", Type: domain.NodeTypeInfo, Next: "Q3"},
			{ID: "3", Text: "Q3", Type: domain.NodeTypeInfo},
		},
	}
}

func TestCreate(t *testing.T) {
	fc := chart()
	out, n, err := Create(fc, RawNode{ID: "ignored", Text: "Q4", Type: "info"})
	require.NoError(t, err)

	assert.Len(t, out.Nodes, 4)
	assert.Len(t, fc.Nodes, 3, "input is not mutated")
	assert.NotEqual(t, "ignored", n.ID)
	assert.Equal(t, n, out.Nodes[3])

	_, _, err = Create(fc, RawNode{Text: "Q2"})
	assert.ErrorIs(t, err, domain.ErrValidation, "duplicate text is rejected")
}

func TestCreateThenUpdateRoundTrip(t *testing.T) {
	raw := RawNode{Text: " Is it new? ", Type: "yesno", Yes: "Q2", No: "Q3", Subheading: "Intake"}

	fc, created, err := Create(chart(), raw)
	require.NoError(t, err)

	fc, updated, err := Update(fc, created.ID, RawFromNode(created))
	require.NoError(t, err)
	assert.Equal(t, created, updated)

	again, err := Validate(RawFromNode(updated))
	require.NoError(t, err)
	assert.Equal(t, created, again)
	assert.Equal(t, "Is it new?", again.Text)
	assert.Len(t, fc.Nodes, 4)
}

func TestUpdate_RenameRelinks(t *testing.T) {
	out, n, err := Update(chart(), "3", RawNode{Text: "Cleared", Type: "info"})
	require.NoError(t, err)

	assert.Equal(t, "3", n.ID)
	assert.Equal(t, "Cleared", out.Nodes[0].No)
	assert.Equal(t, "Cleared", out.Nodes[1].Next)
	assert.Empty(t, Check(out))
}

func TestUpdate_SharedOldTextKeepsLinks(t *testing.T) {
	fc := chart()
	fc.Nodes = append(fc.Nodes, domain.Node{ID: "4", Text: "Q2", Type: domain.NodeTypeInfo})

	out, _, err := Update(fc, "2", RawNode{Text: "Renamed", Type: "info", Next: "Q3"})
	require.NoError(t, err)
	assert.Equal(t, "Q2", out.Nodes[0].Yes, "node 4 still answers to the old text")
	assert.Equal(t, "Renamed", out.Nodes[1].Text)
}

func TestUpdate_NotFound(t *testing.T) {
	_, _, err := Update(chart(), "9", RawNode{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestDelete_ClearsLinks(t *testing.T) {
	fc := chart()
	out, removed, err := Delete(fc, "3")
	require.NoError(t, err)

	assert.Equal(t, "Q3", removed.Text)
	assert.Len(t, out.Nodes, len(fc.Nodes)-1)
	for _, n := range out.Nodes {
		for _, l := range n.Links() {
			assert.NotEqual(t, "Q3", l.Target)
		}
	}
	assert.Equal(t, "Q2", out.Nodes[0].Yes)

	_, _, err = Delete(fc, "missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestConnect(t *testing.T) {
	t.Run("existing node by text", func(t *testing.T) {
		out, created, err := Connect(chart(), "3", domain.LinkNext, "Q1")
		require.NoError(t, err)
		assert.Nil(t, created)
		assert.Equal(t, "Q1", out.Nodes[2].Next)
	})

	t.Run("existing node by id", func(t *testing.T) {
		out, created, err := Connect(chart(), "1", domain.LinkYes, "3")
		require.NoError(t, err)
		assert.Nil(t, created)
		assert.Equal(t, "Q3", out.Nodes[0].Yes)
	})

	t.Run("text wins over a matching id", func(t *testing.T) {
		fc := &domain.Flowchart{Name: "Ids", Nodes: []domain.Node{
			{ID: "1", Text: "Start", Type: domain.NodeTypeYesNo},
			{ID: "2", Text: "Q2", Type: domain.NodeTypeInfo},
			{ID: "3", Text: "2", Type: domain.NodeTypeInfo},
		}}
		out, created, err := Connect(fc, "1", domain.LinkYes, "2")
		require.NoError(t, err)
		assert.Nil(t, created)
		assert.Equal(t, "2", out.Nodes[0].Yes)
	})

	t.Run("free text creates an info node", func(t *testing.T) {
		out, created, err := Connect(chart(), "1", domain.LinkNo, "Call support")
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, domain.NodeTypeInfo, created.Type)
		assert.Equal(t, "Call support", out.Nodes[0].No)
		assert.Equal(t, *created, out.Nodes[3])
	})

	t.Run("field not allowed on type", func(t *testing.T) {
		_, _, err := Connect(chart(), "1", domain.LinkNext, "Q2")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("empty target", func(t *testing.T) {
		_, _, err := Connect(chart(), "2", domain.LinkNext, "  ")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestBuild(t *testing.T) {
	fc, err := Build(" Intake ", []RawNode{{ID: "a", Text: "Start"}, {ID: "b", Text: "End"}})
	require.NoError(t, err)
	assert.Equal(t, "Intake", fc.Name)
	assert.Len(t, fc.Nodes, 2)

	_, err = Build("", []RawNode{{Text: "x"}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Build("x", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Build("x", []RawNode{{ID: "a", Text: "1"}, {ID: "a", Text: "2"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
