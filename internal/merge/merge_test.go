package merge

import (
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seafrepo/internal/cachetree"
	"seafrepo/internal/commit"
	"seafrepo/internal/index"
	"seafrepo/internal/objectstore"
)

func setupTestEnv(t *testing.T) (*objectstore.Store, *commit.Manager, func()) {
	dir, err := os.MkdirTemp("", "merge-test")
	require.NoError(t, err)

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)

	objDir, err := os.MkdirTemp("", "merge-test-objs")
	require.NoError(t, err)

	store, err := objectstore.New(objDir, db, 64, 1<<20)
	require.NoError(t, err)

	cm := commit.NewManager(store)

	cleanup := func() {
		db.Close()
		os.RemoveAll(dir)
		os.RemoveAll(objDir)
	}
	return store, cm, cleanup
}

func treeFromFiles(t *testing.T, store *objectstore.Store, files map[string]string) string {
	t.Helper()
	var entries []index.CacheEntry
	for path, content := range files {
		id, err := store.PutBlob([]byte(content), nil)
		require.NoError(t, err)
		entries = append(entries, index.CacheEntry{Path: path, Mode: index.ModeRegular, BlobID: id})
	}
	state := &index.State{Version: 1, Entries: entries}
	root, err := cachetree.Build(state, store)
	require.NoError(t, err)
	return root
}

type fakePersister struct {
	setCalls   int
	clearCalls int
}

func (p *fakePersister) SetInMerge(repoID, branch string) error { p.setCalls++; return nil }
func (p *fakePersister) ClearInMerge(repoID string) error       { p.clearCalls++; return nil }

func TestFindCommonAncestorLinearHistory(t *testing.T) {
	_, cm, cleanup := setupTestEnv(t)
	defer cleanup()

	root, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: "t0", Creator: "a", CreatedAt: time.Now()})
	require.NoError(t, err)
	child, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: "t1", Creator: "a", CreatedAt: time.Now(), ParentID: root.ID})
	require.NoError(t, err)

	ancestor, err := FindCommonAncestor(cm, root, child)
	require.NoError(t, err)
	require.NotNil(t, ancestor)
	assert.Equal(t, root.ID, ancestor.ID)
}

func TestFindCommonAncestorDivergentBranches(t *testing.T) {
	_, cm, cleanup := setupTestEnv(t)
	defer cleanup()

	base, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: "t0", Creator: "a", CreatedAt: time.Now()})
	require.NoError(t, err)
	left, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: "t1", Creator: "a", CreatedAt: time.Now(), ParentID: base.ID})
	require.NoError(t, err)
	right, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: "t2", Creator: "a", CreatedAt: time.Now(), ParentID: base.ID})
	require.NoError(t, err)

	ancestor, err := FindCommonAncestor(cm, left, right)
	require.NoError(t, err)
	require.NotNil(t, ancestor)
	assert.Equal(t, base.ID, ancestor.ID)
}

func TestMergeBranchesFastForward(t *testing.T) {
	store, cm, cleanup := setupTestEnv(t)
	defer cleanup()

	rootTree := treeFromFiles(t, store, map[string]string{"a.txt": "hello\n"})
	root, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: rootTree, Creator: "a", CreatedAt: time.Now()})
	require.NoError(t, err)

	childTree := treeFromFiles(t, store, map[string]string{"a.txt": "hello\n", "b.txt": "world\n"})
	child, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: childTree, Creator: "a", CreatedAt: time.Now(), ParentID: root.ID})
	require.NoError(t, err)

	state := &index.State{Version: 1}
	persister := &fakePersister{}
	outcome, err := MergeBranches(store, cm, state, "r", "remote", root, child, persister)
	require.NoError(t, err)
	assert.True(t, outcome.FastForward)
	assert.False(t, outcome.RealMerge)
	assert.Equal(t, child.ID, outcome.NewHeadID)
	assert.Equal(t, 0, persister.setCalls, "fast-forward must not enter the in-merge state")
}

func TestMergeBranchesNoOp(t *testing.T) {
	store, cm, cleanup := setupTestEnv(t)
	defer cleanup()

	rootTree := treeFromFiles(t, store, map[string]string{"a.txt": "hello\n"})
	root, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: rootTree, Creator: "a", CreatedAt: time.Now()})
	require.NoError(t, err)

	childTree := treeFromFiles(t, store, map[string]string{"a.txt": "hello\n", "b.txt": "world\n"})
	child, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: childTree, Creator: "a", CreatedAt: time.Now(), ParentID: root.ID})
	require.NoError(t, err)

	state := &index.State{Version: 1}
	outcome, err := MergeBranches(store, cm, state, "r", "remote", child, root, &fakePersister{})
	require.NoError(t, err)
	assert.True(t, outcome.NoOp)
	assert.False(t, outcome.RealMerge)
}

func TestMergeBranchesRealMergeNonConflicting(t *testing.T) {
	store, cm, cleanup := setupTestEnv(t)
	defer cleanup()

	baseTree := treeFromFiles(t, store, map[string]string{"a.txt": "line1\nline2\nline3\n"})
	base, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: baseTree, Creator: "a", CreatedAt: time.Now()})
	require.NoError(t, err)

	headTree := treeFromFiles(t, store, map[string]string{"a.txt": "line1\nline2\nline3\n", "head-only.txt": "head\n"})
	head, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: headTree, Creator: "a", CreatedAt: time.Now(), ParentID: base.ID})
	require.NoError(t, err)

	remoteTree := treeFromFiles(t, store, map[string]string{"a.txt": "line1\nline2\nline3\n", "remote-only.txt": "remote\n"})
	remote, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: remoteTree, Creator: "a", CreatedAt: time.Now(), ParentID: base.ID})
	require.NoError(t, err)

	state := &index.State{Version: 1}
	persister := &fakePersister{}
	outcome, err := MergeBranches(store, cm, state, "r", "remote", head, remote, persister)
	require.NoError(t, err)
	require.True(t, outcome.RealMerge)
	assert.Empty(t, outcome.Conflicts)
	assert.Equal(t, 1, persister.setCalls)

	flat, err := cachetree.Flatten(store, outcome.MergedTreeID)
	require.NoError(t, err)
	paths := make(map[string]string)
	for _, e := range flat {
		content, err := store.GetBlob(e.ID, nil)
		require.NoError(t, err)
		paths[e.Path] = string(content)
	}
	assert.Equal(t, "head\n", paths["head-only.txt"])
	assert.Equal(t, "remote\n", paths["remote-only.txt"])
	assert.Equal(t, "line1\nline2\nline3\n", paths["a.txt"])

	require.NoError(t, FinishMerge(persister, "r"))
	assert.Equal(t, 1, persister.clearCalls)
}

func TestMergeBranchesConflictingEdits(t *testing.T) {
	store, cm, cleanup := setupTestEnv(t)
	defer cleanup()

	baseTree := treeFromFiles(t, store, map[string]string{"a.txt": "line1\nline2\nline3\n"})
	base, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: baseTree, Creator: "a", CreatedAt: time.Now()})
	require.NoError(t, err)

	headTree := treeFromFiles(t, store, map[string]string{"a.txt": "line1\nHEAD-CHANGE\nline3\n"})
	head, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: headTree, Creator: "a", CreatedAt: time.Now(), ParentID: base.ID})
	require.NoError(t, err)

	remoteTree := treeFromFiles(t, store, map[string]string{"a.txt": "line1\nREMOTE-CHANGE\nline3\n"})
	remote, err := cm.Create(commit.Commit{RepoID: "r", RootTreeID: remoteTree, Creator: "a", CreatedAt: time.Now(), ParentID: base.ID})
	require.NoError(t, err)

	state := &index.State{Version: 1}
	outcome, err := MergeBranches(store, cm, state, "r", "remote", head, remote, &fakePersister{})
	require.NoError(t, err)
	require.True(t, outcome.RealMerge)
	assert.Contains(t, outcome.Conflicts, "a.txt")

	flat, err := cachetree.Flatten(store, outcome.MergedTreeID)
	require.NoError(t, err)
	var content string
	for _, e := range flat {
		if e.Path == "a.txt" {
			b, err := store.GetBlob(e.ID, nil)
			require.NoError(t, err)
			content = string(b)
		}
	}
	assert.Contains(t, content, ConflictMarkerBegin)
	assert.Contains(t, content, "HEAD-CHANGE")
	assert.Contains(t, content, "REMOTE-CHANGE")
}

func TestThreeWayMergeCleanBothSidesChangeDifferentLines(t *testing.T) {
	ancestor := []byte("a\nb\nc\nd\n")
	ours := []byte("A\nb\nc\nd\n")
	theirs := []byte("a\nb\nc\nD\n")

	merged, conflict := ThreeWayMerge(ancestor, ours, theirs)
	assert.False(t, conflict)
	assert.Equal(t, "A\nb\nc\nD", string(merged))
}

func TestThreeWayMergeConflictSameLine(t *testing.T) {
	ancestor := []byte("a\nb\nc\n")
	ours := []byte("a\nOURS\nc\n")
	theirs := []byte("a\nTHEIRS\nc\n")

	_, conflict := ThreeWayMerge(ancestor, ours, theirs)
	assert.True(t, conflict)
}
