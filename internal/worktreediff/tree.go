package worktreediff

import (
	"seafrepo/internal/cachetree"
	"seafrepo/internal/index"
	"seafrepo/internal/objectstore"
)

// CollectIndexChanges diffs the index against headHash's tree, the
// same classification collect_changes_index performs (spec §4.H).
// DiffTrees below applies the same classification to two tree
// snapshots for DiffCommits (SUPPLEMENTED FEATURES: seaf_repo_diff).
func CollectIndexChanges(store *objectstore.Store, state *index.State, headHash string) ([]Change, error) {
	var head []cachetree.FlatEntry
	if headHash != "" {
		var err error
		head, err = cachetree.Flatten(store, headHash)
		if err != nil {
			return nil, err
		}
	}
	headSet := make(map[string]cachetree.FlatEntry, len(head))
	for _, e := range head {
		headSet[e.Path] = e
	}

	staged := make(map[string]index.CacheEntry, len(state.Entries))
	for _, e := range state.Entries {
		if !e.Flags.Has(index.FlagRemove) {
			staged[e.Path] = e
		}
	}

	var changes []Change
	for path, e := range staged {
		h, existed := headSet[path]
		switch {
		case !existed && e.Mode.IsDir():
			changes = append(changes, Change{Type: DirAdded, Path: path})
		case !existed:
			changes = append(changes, Change{Type: Added, Path: path, BlobID: e.BlobID})
		case e.Mode.IsDir():
			// stays a directory sentinel, no change
		case h.ID != e.BlobID:
			changes = append(changes, Change{Type: Modified, Path: path, BlobID: e.BlobID})
		}
	}
	for path, h := range headSet {
		if _, stillStaged := staged[path]; stillStaged {
			continue
		}
		if h.Mode == cachetree.ModeDir {
			changes = append(changes, Change{Type: DirDeleted, Path: path})
		} else {
			changes = append(changes, Change{Type: Deleted, Path: path, BlobID: h.ID})
		}
	}

	return changes, nil
}

// DiffTrees diffs two arbitrary tree snapshots directly, the shape
// DiffCommits needs to compare oldCommit.RootTreeID against
// newCommit.RootTreeID without an index in the picture at all.
func DiffTrees(store *objectstore.Store, oldHash, newHash string) ([]Change, error) {
	var oldEntries, newEntries []cachetree.FlatEntry
	var err error
	if oldHash != "" {
		oldEntries, err = cachetree.Flatten(store, oldHash)
		if err != nil {
			return nil, err
		}
	}
	if newHash != "" {
		newEntries, err = cachetree.Flatten(store, newHash)
		if err != nil {
			return nil, err
		}
	}

	oldSet := make(map[string]cachetree.FlatEntry, len(oldEntries))
	for _, e := range oldEntries {
		oldSet[e.Path] = e
	}
	newSet := make(map[string]cachetree.FlatEntry, len(newEntries))
	for _, e := range newEntries {
		newSet[e.Path] = e
	}

	var changes []Change
	for path, n := range newSet {
		o, existed := oldSet[path]
		switch {
		case !existed && n.Mode == cachetree.ModeDir:
			changes = append(changes, Change{Type: DirAdded, Path: path})
		case !existed:
			changes = append(changes, Change{Type: Added, Path: path, BlobID: n.ID})
		case n.Mode != cachetree.ModeDir && o.ID != n.ID:
			changes = append(changes, Change{Type: Modified, Path: path, BlobID: n.ID})
		}
	}
	for path, o := range oldSet {
		if _, stillPresent := newSet[path]; stillPresent {
			continue
		}
		if o.Mode == cachetree.ModeDir {
			changes = append(changes, Change{Type: DirDeleted, Path: path})
		} else {
			changes = append(changes, Change{Type: Deleted, Path: path, BlobID: o.ID})
		}
	}

	resolveRenames(changes)
	return changes, nil
}

// ResolveEmptyDirs collapses a DELETED entry that leaves its parent
// directory represented only by an empty-dir sentinel deletion into a
// single DIR_DELETED, so a directory emptied by removing its last file
// isn't double-reported (spec §4.H resolve_empty_dirs).
func ResolveEmptyDirs(changes []Change) []Change {
	dirDeleted := make(map[string]bool)
	for _, c := range changes {
		if c.Type == DirDeleted {
			dirDeleted[c.Path] = true
		}
	}
	if len(dirDeleted) == 0 {
		return changes
	}

	out := changes[:0]
	for _, c := range changes {
		if c.Type == Deleted && dirDeleted[parentOf(c.Path)] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func parentOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

// ResolveRenames pairs an Added and a Deleted sharing the same blob id
// into a single Renamed entry (spec §4.H resolve_renames).
func ResolveRenames(changes []Change) []Change {
	return resolveRenames(changes)
}

func resolveRenames(changes []Change) []Change {
	deletedByBlob := make(map[string]int)
	for i, c := range changes {
		if c.Type == Deleted {
			deletedByBlob[c.BlobID] = i
		}
	}

	var out []Change
	consumed := make(map[int]bool)
	for _, c := range changes {
		if c.Type != Added {
			continue
		}
		if di, ok := deletedByBlob[c.BlobID]; ok && !consumed[di] {
			consumed[di] = true
			out = append(out, Change{Type: Renamed, Path: c.Path, OldPath: changes[di].Path, BlobID: c.BlobID})
		}
	}

	for i, c := range changes {
		if c.Type == Deleted && consumed[i] {
			continue
		}
		if c.Type == Added {
			if _, wasRenamed := deletedByBlob[c.BlobID]; wasRenamed && consumed[deletedByBlob[c.BlobID]] {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
