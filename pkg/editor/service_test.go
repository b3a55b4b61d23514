package editor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

func newService(t *testing.T) (*editor.Service, *catalog.Repository) {
	t.Helper()
	repo := catalog.New(memory.NewObjectStore())
	doc := &domain.Document{Key: catalog.DefaultKey, Flowchart: &domain.Flowchart{
		Name: "Devices",
		Nodes: []domain.Node{
			{ID: "1", Text: "Q1", Type: domain.NodeTypeYesNo, Yes: "Q2"},
			{ID: "2", Text: "Q2", Type: domain.NodeTypeInfo},
		},
	}}
	require.NoError(t, repo.Save(context.Background(), doc))
	return editor.NewService(repo), repo
}

func TestService_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	res, err := svc.CreateNode(ctx, catalog.DefaultKey, editor.RawNode{Text: "Q3"})
	require.NoError(t, err)
	assert.Equal(t, "New node added successfully!", res.Message)
	require.NotNil(t, res.Document.Flowchart.LastModified)

	stored, err := repo.Load(ctx, catalog.DefaultKey)
	require.NoError(t, err)
	assert.Len(t, stored.Flowchart.Nodes, 3)
	assert.Equal(t, res.Document.Version, stored.Version)

	res, err = svc.UpdateNode(ctx, catalog.DefaultKey, "2", editor.RawNode{Text: "Done", Type: "info"})
	require.NoError(t, err)
	assert.Equal(t, "Node updated successfully!", res.Message)
	assert.Equal(t, "Done", res.Document.Flowchart.Nodes[0].Yes)

	res, err = svc.DeleteNode(ctx, catalog.DefaultKey, "2")
	require.NoError(t, err)
	assert.Equal(t, "Node deleted successfully!", res.Message)
	assert.Empty(t, res.Document.Flowchart.Nodes[0].Yes)
}

func TestService_Connect(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	res, err := svc.Connect(ctx, catalog.DefaultKey, "1", domain.LinkNo, "Call support")
	require.NoError(t, err)
	require.NotNil(t, res.Created)
	assert.Equal(t, "Call support", res.Node.No)
	assert.Len(t, res.Document.Flowchart.Nodes, 3)

	res, err = svc.Disconnect(ctx, catalog.DefaultKey, "1", domain.LinkNo)
	require.NoError(t, err)
	assert.Empty(t, res.Node.No)
}

func TestService_IfMatch(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	doc, err := repo.Load(ctx, catalog.DefaultKey)
	require.NoError(t, err)

	_, err = svc.CreateNode(ctx, catalog.DefaultKey, editor.RawNode{Text: "Q3"}, editor.IfMatch(doc.Version))
	require.NoError(t, err)

	_, err = svc.CreateNode(ctx, catalog.DefaultKey, editor.RawNode{Text: "Q4"}, editor.IfMatch(doc.Version))
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestService_ErrorsLeaveStoreUntouched(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	before, _ := repo.Load(ctx, catalog.DefaultKey)

	_, err := svc.CreateNode(ctx, catalog.DefaultKey, editor.RawNode{Text: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.DeleteNode(ctx, catalog.DefaultKey, "nope")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	_, err = svc.CreateNode(ctx, "flowcharts/missing.json", editor.RawNode{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrFlowchartNotFound)

	after, _ := repo.Load(ctx, catalog.DefaultKey)
	assert.Equal(t, before.Version, after.Version)
}

func TestService_NewFlowchartAndHooks(t *testing.T) {
	ctx := context.Background()
	repo := catalog.New(memory.NewObjectStore())

	var ops []string
	svc := editor.NewService(repo, editor.WithHooks(editor.Hooks{
		OnEdit: func(_ context.Context, op string, _ *domain.Document) { ops = append(ops, op) },
	}))

	_, err := svc.NewFlowchart(ctx, "", []editor.RawNode{{Text: "A"}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	res, err := svc.NewFlowchart(ctx, "Intake", []editor.RawNode{{Text: "A"}})
	require.NoError(t, err)
	assert.Equal(t, "Flowchart saved successfully!", res.Message)
	require.NotNil(t, res.Document.Flowchart.CreatedAt)

	issues, err := svc.Check(ctx, res.Document.Key)
	require.NoError(t, err)
	assert.Empty(t, issues)

	assert.Equal(t, []string{editor.OpNewChart}, ops)
}
