package repomgr

// SetInMerge persists MergeInfo(in_merge=1, branch) before any
// worktree write, satisfying merge.Persister so a crash mid-merge is
// detectable on the next Start() (spec §3, §4.I).
func (m *Manager) SetInMerge(repoID, branchName string) error {
	return m.merges.Upsert(&MergeInfo{RepoID: repoID, InMerge: true, Branch: branchName})
}

// ClearInMerge removes the MergeInfo row once the merge commit has
// landed (or the merge was aborted before writing one).
func (m *Manager) ClearInMerge(repoID string) error {
	return m.merges.Delete(repoID)
}

// GetMergeInfo returns the persisted merge state for repoID, ok=false
// if the repo is not mid-merge.
func (m *Manager) GetMergeInfo(repoID string) (info MergeInfo, ok bool) {
	if err := m.merges.Get(repoID, &info); err != nil {
		return MergeInfo{}, false
	}
	return info, true
}
