package repomgr

import (
	"fmt"

	"seafrepo/internal/worktreediff"
)

// DiffCommits diffs two arbitrary commits' trees directly (SUPPLEMENTED
// FEATURE: seaf_repo_diff), rather than the usual index-vs-worktree or
// index-vs-head comparisons the rest of the package performs.
func (m *Manager) DiffCommits(repoID, oldCommitID, newCommitID string) ([]worktreediff.Change, error) {
	store, err := m.objectStore(repoID)
	if err != nil {
		return nil, err
	}
	cm, err := m.commitManager(repoID)
	if err != nil {
		return nil, err
	}

	var oldTree, newTree string
	if oldCommitID != "" {
		oldCommit, err := cm.Load(oldCommitID)
		if err != nil {
			return nil, fmt.Errorf("loading commit %s: %w", oldCommitID, err)
		}
		oldTree = oldCommit.RootTreeID
	}
	newCommit, err := cm.Load(newCommitID)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", newCommitID, err)
	}
	newTree = newCommit.RootTreeID

	changes, err := worktreediff.DiffTrees(store, oldTree, newTree)
	if err != nil {
		return nil, err
	}
	return worktreediff.ResolveEmptyDirs(changes), nil
}
