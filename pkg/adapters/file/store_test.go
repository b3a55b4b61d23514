package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/ports/tests"
)

var (
	_ ports.StateStore  = (*file.Store)(nil)
	_ ports.ObjectStore = (*file.ObjectStore)(nil)
	_ ports.Watcher     = (*file.ObjectStore)(nil)
	_ ports.Cache       = (*file.Cache)(nil)
)

func TestFileStore_Contract(t *testing.T) {
	tests.StateStoreContractTest(t, file.New(t.TempDir()))
}

func TestFileObjectStore_Contract(t *testing.T) {
	tests.ObjectStoreContractTest(t, file.NewObjectStore(t.TempDir()))
}

func TestFileCache_Contract(t *testing.T) {
	tests.CacheContractTest(t, file.NewCache(t.TempDir()))
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	err := store.Save(context.Background(), "../escape", nil)
	assert.Error(t, err)
}

func TestFileObjectStore_KeysStayUnderRoot(t *testing.T) {
	root := t.TempDir()
	store := file.NewObjectStore(root)

	_, err := store.Put(context.Background(), "../../outside.json", []byte("{}"), ports.PutOptions{})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "outside.json"))
	assert.NoError(t, err, "dot segments are cleaned relative to the root")
}

func TestFileObjectStore_HandEditChangesVersion(t *testing.T) {
	root := t.TempDir()
	store := file.NewObjectStore(root)
	ctx := context.Background()

	v1, err := store.Put(ctx, "flowchart.json", []byte(`{"name":"a"}`), ports.PutOptions{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "flowchart.json"), []byte(`{"name":"edited"}`), 0644))

	_, err = store.Put(ctx, "flowchart.json", []byte(`{"name":"b"}`), ports.PutOptions{IfMatch: v1})
	assert.Error(t, err)
}

func TestFileObjectStore_Watch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "flowcharts"), 0755))
	store := file.NewObjectStore(root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "flowcharts", "a-1.json"), []byte("{}"), 0644))

	select {
	case key := <-events:
		assert.Equal(t, "flowcharts/a-1.json", key)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
}
