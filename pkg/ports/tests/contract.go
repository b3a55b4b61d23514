package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// ObjectStoreContractTest verifies that an adapter complies with ports.ObjectStore.
// The store must be empty.
func ObjectStoreContractTest(t *testing.T, store ports.ObjectStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "flowcharts/missing.json")
		assert.ErrorIs(t, err, ports.ErrObjectNotFound)
	})

	t.Run("Put_Get", func(t *testing.T) {
		v, err := store.Put(ctx, "flowchart.json", []byte(`{"name":"a"}`), ports.PutOptions{})
		require.NoError(t, err)
		require.NotEmpty(t, v)

		obj, err := store.Get(ctx, "flowchart.json")
		require.NoError(t, err)
		assert.Equal(t, `{"name":"a"}`, string(obj.Body))
		assert.Equal(t, v, obj.Version)
		assert.Equal(t, "flowchart.json", obj.Key)
	})

	t.Run("IfMatch", func(t *testing.T) {
		obj, err := store.Get(ctx, "flowchart.json")
		require.NoError(t, err)

		v2, err := store.Put(ctx, "flowchart.json", []byte(`{"name":"b"}`), ports.PutOptions{IfMatch: obj.Version})
		require.NoError(t, err)
		assert.NotEqual(t, obj.Version, v2)

		_, err = store.Put(ctx, "flowchart.json", []byte(`{"name":"c"}`), ports.PutOptions{IfMatch: obj.Version})
		assert.ErrorIs(t, err, domain.ErrVersionConflict, "stale version must be rejected")

		cur, err := store.Get(ctx, "flowchart.json")
		require.NoError(t, err)
		assert.Equal(t, `{"name":"b"}`, string(cur.Body))
	})

	t.Run("IfNoneMatch", func(t *testing.T) {
		_, err := store.Put(ctx, "flowchart.json", []byte(`{}`), ports.PutOptions{IfNoneMatch: true})
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		_, err = store.Put(ctx, "flowcharts/new-1.json", []byte(`{}`), ports.PutOptions{IfNoneMatch: true})
		assert.NoError(t, err)
	})

	t.Run("List", func(t *testing.T) {
		_, err := store.Put(ctx, "flowcharts/other-2.json", []byte(`{}`), ports.PutOptions{})
		require.NoError(t, err)

		infos, err := store.List(ctx, "flowcharts/")
		require.NoError(t, err)

		names := make([]string, 0, len(infos))
		for _, i := range infos {
			names = append(names, i.Filename)
			assert.Equal(t, "flowcharts/"+i.Filename, i.Key)
		}
		assert.ElementsMatch(t, []string{"new-1.json", "other-2.json"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "flowcharts/other-2.json"))
		_, err := store.Get(ctx, "flowcharts/other-2.json")
		assert.ErrorIs(t, err, ports.ErrObjectNotFound)

		assert.ErrorIs(t, store.Delete(ctx, "flowcharts/other-2.json"), ports.ErrObjectNotFound)
	})
}

// StateStoreContractTest verifies that an adapter complies with ports.StateStore.
func StateStoreContractTest(t *testing.T, store ports.StateStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Save_Load_List_Delete", func(t *testing.T) {
		state := &domain.State{
			SessionID:     "s1",
			FlowchartKey:  "flowchart.json",
			CurrentNodeID: "2",
			IsEnd:         true,
			HasLoggedEnd:  true,
			History: []domain.HistoryEntry{
				{ID: "1", Question: "Q1", Answer: domain.AnswerYes},
				{ID: "2", Question: "Q2", Answer: domain.AnswerEnd},
			},
		}
		require.NoError(t, store.Save(ctx, "s1", state))

		got, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, state.CurrentNodeID, got.CurrentNodeID)
		assert.Equal(t, state.History, got.History)
		assert.True(t, got.IsEnd)
		assert.True(t, got.HasLoggedEnd)

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, "s1")

		require.NoError(t, store.Delete(ctx, "s1"))
		_, err = store.Load(ctx, "s1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

// CacheContractTest verifies that an adapter complies with ports.Cache.
func CacheContractTest(t *testing.T, cache ports.Cache) {
	t.Helper()
	ctx := context.Background()

	_, err := cache.Get(ctx, "current")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	entry := &ports.CacheEntry{Key: "flowchart.json", Flowchart: &domain.Flowchart{Name: "A", Nodes: []domain.Node{{ID: "1", Text: "Q", Type: domain.NodeTypeInfo}}}}
	require.NoError(t, cache.Set(ctx, "current", entry))

	got, err := cache.Get(ctx, "current")
	require.NoError(t, err)
	assert.Equal(t, entry.Key, got.Key)
	assert.Equal(t, entry.Flowchart.Nodes, got.Flowchart.Nodes)
}
