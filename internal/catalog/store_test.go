package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeCatalog(t *testing.T, path, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
}

func TestStore_ReloadSwapsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	writeCatalog(t, path, `{"items":[{"itemId":1,"description":"Bleach White"}]}`)

	store, err := Open(path)
	require.NoError(t, err)

	before := store.Snapshot()
	require.Equal(t, 1, before.Catalog.Len())

	writeCatalog(t, path, `{"items":[{"itemId":1},{"itemId":2}]}`)
	after, err := store.Reload()
	require.NoError(t, err)

	assert.NotEqual(t, before.Version, after.Version)
	assert.Equal(t, 2, store.Snapshot().Catalog.Len())
	// The old snapshot is untouched.
	assert.Equal(t, 1, before.Catalog.Len())
}

func TestStore_FailedReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	writeCatalog(t, path, `{"items":[{"itemId":1}]}`)

	store, err := Open(path)
	require.NoError(t, err)
	live := store.Snapshot()

	writeCatalog(t, path, `{"items": [`)
	_, err = store.Reload()
	require.Error(t, err)
	assert.Same(t, live, store.Snapshot())
}

func TestOpen_MissingFails(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
}

func TestStore_ConcurrentReadsDuringReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	writeCatalog(t, path, `{"items":[{"itemId":1},{"itemId":2}]}`)
	store, err := Open(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := store.Snapshot()
				assert.Equal(t, 2, snap.Catalog.Len())
			}
		}()
	}
	for i := 0; i < 5; i++ {
		_, err := store.Reload()
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestNewStore_InMemory(t *testing.T) {
	store := NewStore(New(nil))
	snap, err := store.Reload()
	require.NoError(t, err)
	assert.Same(t, store.Snapshot(), snap)
	assert.Empty(t, store.Path())

	replaced := store.Replace(New([]Record{textRecord(9, "Acetic Acid", "Chemicals")}))
	assert.Equal(t, 1, replaced.Catalog.Len())
	assert.Same(t, replaced, store.Snapshot())
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := filepath.Join(t.TempDir(), "inventory.json")
	writeCatalog(t, path, `{"items":[{"itemId":1}]}`)
	store, err := Open(path)
	require.NoError(t, err)

	w, err := NewWatcher(store, 50*time.Millisecond, nil)
	require.NoError(t, err)

	reloaded := make(chan error, 4)
	w.OnReload(func(_ *Snapshot, err error) { reloaded <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeCatalog(t, path, `{"items":[{"itemId":1},{"itemId":2},{"itemId":3}]}`)

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload the catalog")
	}
	assert.Equal(t, 3, store.Snapshot().Catalog.Len())
}

func TestNewWatcher_RequiresFileStore(t *testing.T) {
	_, err := NewWatcher(NewStore(New(nil)), time.Second, nil)
	require.Error(t, err)
}
