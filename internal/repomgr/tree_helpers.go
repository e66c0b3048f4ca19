package repomgr

import (
	"sort"

	"seafrepo/internal/cachetree"
	"seafrepo/internal/index"
	"seafrepo/internal/objectstore"
)

func buildTree(store *objectstore.Store, state *index.State) (string, error) {
	return cachetree.Build(state, store)
}

// rebuildIndexFromTree replaces state's entries with exactly what
// treeHash describes, the index state a checkout/reset/merge leaves
// behind once the worktree matches the new head (spec §4.F: the index
// tracks the checked-out tree after a successful unpack).
func rebuildIndexFromTree(store *objectstore.Store, state *index.State, treeHash string) error {
	if treeHash == "" {
		state.Entries = nil
		return nil
	}
	flat, err := cachetree.Flatten(store, treeHash)
	if err != nil {
		return err
	}

	entries := make([]index.CacheEntry, 0, len(flat))
	for _, e := range flat {
		mode := index.ModeRegular
		if e.Mode.IsDirMode() {
			mode = index.ModeEmptyDir
		} else if e.Mode.IsExecMode() {
			mode = index.ModeExec
		}
		entries = append(entries, index.CacheEntry{Path: e.Path, Mode: mode, BlobID: e.ID})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	state.Entries = entries
	return nil
}
