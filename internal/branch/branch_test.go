package branch

import (
	"os"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seafrepo/internal/storage"
)

func setupTestRegistry(t *testing.T) (*Registry, func()) {
	dir, err := os.MkdirTemp("", "branch-test")
	require.NoError(t, err)

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.RemoveAll(dir)
	}
	return NewRegistry(storage.NewBadgerStore(db, "branch")), cleanup
}

func TestCreateAndGet(t *testing.T) {
	r, cleanup := setupTestRegistry(t)
	defer cleanup()

	_, err := r.Create("repo-1", DefaultName, "commit-1")
	require.NoError(t, err)

	b, err := r.Get("repo-1", DefaultName)
	require.NoError(t, err)
	assert.Equal(t, "commit-1", b.CommitID)
}

func TestCreateDuplicateFails(t *testing.T) {
	r, cleanup := setupTestRegistry(t)
	defer cleanup()

	_, err := r.Create("repo-1", DefaultName, "commit-1")
	require.NoError(t, err)
	_, err = r.Create("repo-1", DefaultName, "commit-2")
	assert.Error(t, err)
}

func TestSetHeadCompareAndSwap(t *testing.T) {
	r, cleanup := setupTestRegistry(t)
	defer cleanup()

	_, err := r.Create("repo-1", DefaultName, "commit-1")
	require.NoError(t, err)

	require.NoError(t, r.SetHead("repo-1", DefaultName, "commit-1", "commit-2"))

	b, err := r.Get("repo-1", DefaultName)
	require.NoError(t, err)
	assert.Equal(t, "commit-2", b.CommitID)
}

func TestSetHeadFailsOnStaleExpectation(t *testing.T) {
	r, cleanup := setupTestRegistry(t)
	defer cleanup()

	_, err := r.Create("repo-1", DefaultName, "commit-1")
	require.NoError(t, err)
	require.NoError(t, r.SetHead("repo-1", DefaultName, "commit-1", "commit-2"))

	err = r.SetHead("repo-1", DefaultName, "commit-1", "commit-3")
	assert.Error(t, err)
}

func TestListScopesToRepo(t *testing.T) {
	r, cleanup := setupTestRegistry(t)
	defer cleanup()

	_, err := r.Create("repo-1", DefaultName, "c1")
	require.NoError(t, err)
	_, err = r.Create("repo-1", "feature", "c2")
	require.NoError(t, err)
	_, err = r.Create("repo-2", DefaultName, "c3")
	require.NoError(t, err)

	branches, err := r.List("repo-1")
	require.NoError(t, err)
	assert.Len(t, branches, 2)
}

func TestIsValidNameRejectsSlash(t *testing.T) {
	assert.True(t, IsValidName("local"))
	assert.False(t, IsValidName("a/b"))
	assert.False(t, IsValidName(""))
}
