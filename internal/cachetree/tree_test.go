package cachetree

import (
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seafrepo/internal/index"
	"seafrepo/internal/objectstore"
)

func setupTestStore(t *testing.T) (*objectstore.Store, func()) {
	dir, err := os.MkdirTemp("", "cachetree-test")
	require.NoError(t, err)

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)

	objDir, err := os.MkdirTemp("", "cachetree-test-objs")
	require.NoError(t, err)

	store, err := objectstore.New(objDir, db, 64, 1<<20)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.RemoveAll(dir)
		os.RemoveAll(objDir)
	}
	return store, cleanup
}

func stateWith(entries ...index.CacheEntry) *index.State {
	return &index.State{Version: 1, Entries: entries}
}

func TestBuildIsDeterministicRegardlessOfStagingOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	now := time.Now()
	e1 := index.CacheEntry{Path: "dir/a.txt", Mode: index.ModeRegular, BlobID: "blob-a", Ctime: now, Mtime: now}
	e2 := index.CacheEntry{Path: "dir/b.txt", Mode: index.ModeRegular, BlobID: "blob-b", Ctime: now, Mtime: now}
	e3 := index.CacheEntry{Path: "top.txt", Mode: index.ModeRegular, BlobID: "blob-top", Ctime: now, Mtime: now}

	rootA, err := Build(stateWith(e1, e2, e3), store)
	require.NoError(t, err)
	rootB, err := Build(stateWith(e3, e2, e1), store)
	require.NoError(t, err)

	assert.Equal(t, rootA, rootB, "tree id must not depend on staging order")
}

func TestBuildSkipsRemovedEntries(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	now := time.Now()
	kept := index.CacheEntry{Path: "a.txt", Mode: index.ModeRegular, BlobID: "blob-a", Ctime: now, Mtime: now}
	removed := index.CacheEntry{Path: "b.txt", Mode: index.ModeRegular, BlobID: "blob-b", Ctime: now, Mtime: now, Flags: index.FlagRemove}

	root, err := Build(stateWith(kept, removed), store)
	require.NoError(t, err)

	flat, err := Flatten(store, root)
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, "a.txt", flat[0].Path)
}

func TestBuildPreservesEmptyDirectorySentinel(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	root, err := Build(stateWith(index.CacheEntry{Path: "empty", Mode: index.ModeEmptyDir}), store)
	require.NoError(t, err)

	flat, err := Flatten(store, root)
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, "empty", flat[0].Path)
	assert.Equal(t, ModeDir, flat[0].Mode)
}

func TestFlattenRoundTripsNestedPaths(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	now := time.Now()
	entries := []index.CacheEntry{
		{Path: "a/b/c.txt", Mode: index.ModeRegular, BlobID: "blob-c", Ctime: now, Mtime: now},
		{Path: "a/d.txt", Mode: index.ModeRegular, BlobID: "blob-d", Ctime: now, Mtime: now},
	}
	root, err := Build(stateWith(entries...), store)
	require.NoError(t, err)

	flat, err := Flatten(store, root)
	require.NoError(t, err)

	var paths []string
	for _, f := range flat {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"a/b/c.txt", "a/d.txt"}, paths)
}
