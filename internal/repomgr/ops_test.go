package repomgr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagePathsAndCommit(t *testing.T) {
	m := newTestManager(t)
	worktree := newWorktree(t)

	r, err := m.CreateNewRepo("repo1", "")
	require.NoError(t, err)
	require.NoError(t, m.SetRepoWorktree(r.ID, worktree, nil, nil))

	writeFile(t, worktree, "hello.txt", "hello world\n")

	require.NoError(t, m.StagePaths(r.ID, ""))

	c, err := m.Commit(r.ID, "alice", "", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Description)
	assert.Equal(t, r.ID, c.RepoID)

	loaded, err := m.GetRepo(r.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, loaded.HeadCommitID)
}

func TestStatusReflectsWorktreeChanges(t *testing.T) {
	m := newTestManager(t)
	worktree := newWorktree(t)

	r, err := m.CreateNewRepo("repo2", "")
	require.NoError(t, err)
	require.NoError(t, m.SetRepoWorktree(r.ID, worktree, nil, nil))

	writeFile(t, worktree, "a.txt", "one\n")
	require.NoError(t, m.StagePaths(r.ID, ""))
	_, err = m.Commit(r.ID, "alice", "", "initial", nil)
	require.NoError(t, err)

	changes, err := m.Status(r.ID)
	require.NoError(t, err)
	assert.Empty(t, changes, "freshly committed worktree should be clean")

	writeFile(t, worktree, "b.txt", "two\n")
	changes, err = m.Status(r.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "b.txt", changes[0].Path)
}

func TestCheckoutRestoresCommittedContent(t *testing.T) {
	m := newTestManager(t)
	worktree := newWorktree(t)

	r, err := m.CreateNewRepo("repo3", "")
	require.NoError(t, err)
	require.NoError(t, m.SetRepoWorktree(r.ID, worktree, nil, nil))

	writeFile(t, worktree, "a.txt", "v1\n")
	require.NoError(t, m.StagePaths(r.ID, ""))
	first, err := m.Commit(r.ID, "alice", "", "v1", nil)
	require.NoError(t, err)

	writeFile(t, worktree, "a.txt", "v2\n")
	require.NoError(t, m.StagePaths(r.ID, ""))
	_, err = m.Commit(r.ID, "alice", "", "v2", nil)
	require.NoError(t, err)

	require.NoError(t, m.Checkout(r.ID, first.ID))

	data, err := os.ReadFile(filepath.Join(worktree, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v1\n", string(data))
}

func TestResetDiscardsLocalChanges(t *testing.T) {
	m := newTestManager(t)
	worktree := newWorktree(t)

	r, err := m.CreateNewRepo("repo4", "")
	require.NoError(t, err)
	require.NoError(t, m.SetRepoWorktree(r.ID, worktree, nil, nil))

	writeFile(t, worktree, "a.txt", "committed\n")
	require.NoError(t, m.StagePaths(r.ID, ""))
	first, err := m.Commit(r.ID, "alice", "", "first", nil)
	require.NoError(t, err)

	writeFile(t, worktree, "a.txt", "dirty uncommitted edit\n")

	cm, err := m.commitManager(r.ID)
	require.NoError(t, err)
	target, err := cm.Load(first.ID)
	require.NoError(t, err)

	require.NoError(t, m.Reset(r.ID, target))

	data, err := os.ReadFile(filepath.Join(worktree, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "committed\n", string(data))
}

func TestRevertCreatesNewCommitWithTargetTree(t *testing.T) {
	m := newTestManager(t)
	worktree := newWorktree(t)

	r, err := m.CreateNewRepo("repo6", "")
	require.NoError(t, err)
	require.NoError(t, m.SetRepoWorktree(r.ID, worktree, nil, nil))

	writeFile(t, worktree, "x.txt", "1\n")
	require.NoError(t, m.StagePaths(r.ID, ""))
	c1, err := m.Commit(r.ID, "alice", "", "x=1", nil)
	require.NoError(t, err)

	writeFile(t, worktree, "x.txt", "2\n")
	require.NoError(t, m.StagePaths(r.ID, ""))
	c2, err := m.Commit(r.ID, "alice", "", "x=2", nil)
	require.NoError(t, err)

	cm, err := m.commitManager(r.ID)
	require.NoError(t, err)
	target, err := cm.Load(c1.ID)
	require.NoError(t, err)

	c3, err := m.Revert(r.ID, target, nil)
	require.NoError(t, err)

	assert.Equal(t, c2.ID, c3.ParentID)
	assert.Equal(t, c1.RootTreeID, c3.RootTreeID)
	assert.True(t, strings.HasPrefix(c3.Description, "Reverted repo to status at "))

	data, err := os.ReadFile(filepath.Join(worktree, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(data))

	loaded, err := m.GetRepo(r.ID)
	require.NoError(t, err)
	assert.Equal(t, c3.ID, loaded.HeadCommitID)
}

func TestMergeRemoteBranchFastForward(t *testing.T) {
	m := newTestManager(t)
	worktree := newWorktree(t)

	r, err := m.CreateNewRepo("repo5", "")
	require.NoError(t, err)
	require.NoError(t, m.SetRepoWorktree(r.ID, worktree, nil, nil))

	writeFile(t, worktree, "a.txt", "base\n")
	require.NoError(t, m.StagePaths(r.ID, ""))
	base, err := m.Commit(r.ID, "alice", "", "base", nil)
	require.NoError(t, err)

	writeFile(t, worktree, "b.txt", "remote-only\n")
	require.NoError(t, m.StagePaths(r.ID, ""))
	ahead, err := m.Commit(r.ID, "bob", "", "ahead", nil)
	require.NoError(t, err)

	// Roll head back to base so the merge sees ahead as a pure fast-forward.
	cm, err := m.commitManager(r.ID)
	require.NoError(t, err)
	baseCommit, err := cm.Load(base.ID)
	require.NoError(t, err)
	require.NoError(t, m.Reset(r.ID, baseCommit))

	outcome, err := m.MergeRemoteBranch(r.ID, "remote", "carol", ahead.ID)
	require.NoError(t, err)
	assert.True(t, outcome.FastForward)
	assert.Equal(t, ahead.ID, outcome.NewHeadID)

	data, err := os.ReadFile(filepath.Join(worktree, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "remote-only\n", string(data))
}
