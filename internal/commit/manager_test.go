package commit

import (
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seafrepo/internal/objectstore"
)

func setupTestManager(t *testing.T) (*Manager, func()) {
	dir, err := os.MkdirTemp("", "commit-test")
	require.NoError(t, err)

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)

	objDir, err := os.MkdirTemp("", "commit-test-objs")
	require.NoError(t, err)

	store, err := objectstore.New(objDir, db, 64, 1<<20)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.RemoveAll(dir)
		os.RemoveAll(objDir)
	}
	return NewManager(store), cleanup
}

func TestCreateAndLoadRoundTrip(t *testing.T) {
	m, cleanup := setupTestManager(t)
	defer cleanup()

	c, err := m.Create(Commit{
		RepoID:      "repo-1",
		RootTreeID:  "deadbeef",
		Creator:     "alice",
		Description: "initial commit",
		CreatedAt:   time.Now(),
		RepoName:    "my-repo",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	loaded, err := m.Load(c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.RepoID, loaded.RepoID)
	assert.Equal(t, c.RootTreeID, loaded.RootTreeID)
	assert.Equal(t, c.Description, loaded.Description)
}

func TestSameContentSameID(t *testing.T) {
	m, cleanup := setupTestManager(t)
	defer cleanup()

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := Commit{RepoID: "repo-1", RootTreeID: "a", Creator: "alice", CreatedAt: at}

	c1, err := m.Create(base)
	require.NoError(t, err)
	c2, err := m.Create(base)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID, "identical canonical fields must hash to the same commit id")
}

func TestWalkAncestorsVisitsEachOnce(t *testing.T) {
	m, cleanup := setupTestManager(t)
	defer cleanup()

	root, err := m.Create(Commit{RepoID: "r", RootTreeID: "t0", Creator: "a", CreatedAt: time.Now()})
	require.NoError(t, err)

	child, err := m.Create(Commit{RepoID: "r", RootTreeID: "t1", Creator: "a", CreatedAt: time.Now(), ParentID: root.ID})
	require.NoError(t, err)

	grandchild, err := m.Create(Commit{RepoID: "r", RootTreeID: "t2", Creator: "a", CreatedAt: time.Now(), ParentID: child.ID})
	require.NoError(t, err)

	var visited []string
	err = m.WalkAncestors(grandchild, func(c *Commit) bool {
		visited = append(visited, c.ID)
		return true
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root.ID, child.ID, grandchild.ID}, visited)
}

func TestWalkAncestorsEarlyStop(t *testing.T) {
	m, cleanup := setupTestManager(t)
	defer cleanup()

	root, err := m.Create(Commit{RepoID: "r", RootTreeID: "t0", Creator: "a", CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = m.Create(Commit{RepoID: "r", RootTreeID: "t1", Creator: "a", CreatedAt: time.Now(), ParentID: root.ID})
	require.NoError(t, err)

	count := 0
	err = m.WalkAncestors(root, func(c *Commit) bool {
		count++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMergeCommitHasTwoParents(t *testing.T) {
	c := Commit{ParentID: "a", SecondParentID: "b"}
	assert.True(t, c.IsMergeCommit())
	assert.Equal(t, []string{"a", "b"}, c.Parents())
}
