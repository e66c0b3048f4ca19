package merge

import (
	"fmt"
	"sort"

	"seafrepo/internal/cachetree"
	"seafrepo/internal/commit"
	"seafrepo/internal/index"
	"seafrepo/internal/objectstore"
)

// Outcome is the summary MergeBranches returns to the caller (spec
// §4.I: "merge_branches(repo, remote_branch) -> real_merge?").
type Outcome struct {
	RealMerge    bool
	FastForward  bool
	NoOp         bool
	NewHeadID    string
	Conflicts    []string
	MergedTreeID string
}

// Persister is the crash-recovery hook: MergeBranches must persist
// MergeInfo(in_merge=1, branch) before touching the worktree, and
// clear it only once the merge commit is recorded (spec §4.I,
// §4.G state machine clean -> merging -> committed -> clean). Owned by
// the repo manager so this package stays free of a repomgr import
// cycle.
type Persister interface {
	SetInMerge(repoID, branch string) error
	ClearInMerge(repoID string) error
}

// MergeBranches implements spec §4.I. On a real 3-way merge it writes
// the merged tree to store and returns MergedTreeID for the caller to
// wrap in a commit with second_parent_id = remote.ID; it does not
// create the commit itself, matching the Commit DAG Manager's
// exclusive ownership of commit creation.
func MergeBranches(store *objectstore.Store, cm *commit.Manager, state *index.State, repoID, remoteBranchName string, head, remote *commit.Commit, persister Persister) (*Outcome, error) {
	ancestor, err := FindCommonAncestor(cm, head, remote)
	if err != nil {
		return nil, fmt.Errorf("finding common ancestor: %w", err)
	}
	if ancestor == nil {
		return nil, fmt.Errorf("no common ancestor between %s and %s", head.ID, remote.ID)
	}

	if ancestor.ID == head.ID {
		return &Outcome{RealMerge: false, FastForward: true, NewHeadID: remote.ID}, nil
	}
	if ancestor.ID == remote.ID {
		return &Outcome{RealMerge: false, NoOp: true}, nil
	}

	if persister != nil {
		if err := persister.SetInMerge(repoID, remoteBranchName); err != nil {
			return nil, fmt.Errorf("persisting merge state: %w", err)
		}
	}

	entries, conflicts, err := mergeTrees(store, ancestor.RootTreeID, head.RootTreeID, remote.RootTreeID)
	if err != nil {
		return nil, fmt.Errorf("merging trees: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	newState := &index.State{Version: state.Version, Entries: entries}
	rootID, err := cachetree.Build(newState, store)
	if err != nil {
		return nil, fmt.Errorf("building merged tree: %w", err)
	}

	state.Entries = entries

	return &Outcome{
		RealMerge:    true,
		Conflicts:    conflicts,
		MergedTreeID: rootID,
	}, nil
}

// FinishMerge clears the persisted in-merge flag once the caller has
// recorded the merge commit (spec §4.I: "clear it only after the
// resulting commit is recorded").
func FinishMerge(persister Persister, repoID string) error {
	if persister == nil {
		return nil
	}
	return persister.ClearInMerge(repoID)
}

func mergeTrees(store *objectstore.Store, ancestorHash, headHash, remoteHash string) ([]index.CacheEntry, []string, error) {
	ancestorEntries, err := flattenOrEmpty(store, ancestorHash)
	if err != nil {
		return nil, nil, err
	}
	headEntries, err := flattenOrEmpty(store, headHash)
	if err != nil {
		return nil, nil, err
	}
	remoteEntries, err := flattenOrEmpty(store, remoteHash)
	if err != nil {
		return nil, nil, err
	}

	paths := make(map[string]bool)
	for _, e := range ancestorEntries {
		paths[e.Path] = true
	}
	for _, e := range headEntries {
		paths[e.Path] = true
	}
	for _, e := range remoteEntries {
		paths[e.Path] = true
	}

	var entries []index.CacheEntry
	var conflicts []string

	for path := range paths {
		a, aOK := ancestorEntries[path]
		h, hOK := headEntries[path]
		r, rOK := remoteEntries[path]

		aID, hID, rID := idOf(a, aOK), idOf(h, hOK), idOf(r, rOK)

		switch {
		case hID == rID:
			if hOK {
				entries = append(entries, toCacheEntry(path, h))
			}
			continue
		case hID == aID:
			if rOK {
				entries = append(entries, toCacheEntry(path, r))
			}
			continue
		case rID == aID:
			if hOK {
				entries = append(entries, toCacheEntry(path, h))
			}
			continue
		}

		// Both sides changed the path differently.
		if !hOK || !rOK {
			// Modify/delete conflict: keep whichever side still has the
			// file, flagged as a conflict for the caller to surface.
			conflicts = append(conflicts, path)
			if hOK {
				entries = append(entries, toCacheEntry(path, h))
			} else if rOK {
				entries = append(entries, toCacheEntry(path, r))
			}
			continue
		}
		if h.Mode.IsDirMode() || r.Mode.IsDirMode() {
			conflicts = append(conflicts, path)
			entries = append(entries, toCacheEntry(path, h))
			continue
		}

		aContent, ourContent, theirContent, err := loadThree(store, a, aOK, h, r)
		if err != nil {
			return nil, nil, err
		}

		if isBinary(ourContent) || isBinary(theirContent) {
			conflicts = append(conflicts, path)
			ourID, err := store.PutBlob(ourContent, nil)
			if err != nil {
				return nil, nil, err
			}
			theirID, err := store.PutBlob(theirContent, nil)
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries,
				index.CacheEntry{Path: path + ".ours", Mode: index.ModeRegular, BlobID: ourID},
				index.CacheEntry{Path: path + ".theirs", Mode: index.ModeRegular, BlobID: theirID},
			)
			continue
		}

		merged, hadConflict := ThreeWayMerge(aContent, ourContent, theirContent)
		blobID, err := store.PutBlob(merged, nil)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, index.CacheEntry{Path: path, Mode: index.ModeRegular, BlobID: blobID})
		if hadConflict {
			conflicts = append(conflicts, path)
		}
	}

	return entries, conflicts, nil
}

func flattenOrEmpty(store *objectstore.Store, hash string) (map[string]cachetree.FlatEntry, error) {
	m := make(map[string]cachetree.FlatEntry)
	if hash == "" {
		return m, nil
	}
	flat, err := cachetree.Flatten(store, hash)
	if err != nil {
		return nil, err
	}
	for _, e := range flat {
		m[e.Path] = e
	}
	return m, nil
}

func idOf(e cachetree.FlatEntry, ok bool) string {
	if !ok {
		return ""
	}
	return e.ID
}

func toCacheEntry(path string, e cachetree.FlatEntry) index.CacheEntry {
	mode := index.ModeRegular
	if e.Mode.IsDirMode() {
		mode = index.ModeEmptyDir
	} else if e.Mode.IsExecMode() {
		mode = index.ModeExec
	}
	return index.CacheEntry{Path: path, Mode: mode, BlobID: e.ID}
}

func loadThree(store *objectstore.Store, a cachetree.FlatEntry, aOK bool, h, r cachetree.FlatEntry) (aContent, hContent, rContent []byte, err error) {
	if aOK {
		aContent, err = store.GetBlob(a.ID, nil)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	hContent, err = store.GetBlob(h.ID, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	rContent, err = store.GetBlob(r.ID, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return aContent, hContent, rContent, nil
}
