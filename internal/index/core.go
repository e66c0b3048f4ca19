// internal/index/core.go
package index

import (
	"sort"
	"time"
)

// IndexNamePos returns the position of path in state.Entries via
// binary search. A nonnegative result is the exact position; a
// negative result encodes "would insert at" as -(pos+1), matching
// spec §4.D.
func IndexNamePos(state *State, path string) int {
	n := len(state.Entries)
	i := sort.Search(n, func(i int) bool { return state.Entries[i].Path >= path })
	if i < n && state.Entries[i].Path == path {
		return i
	}
	return -(i + 1)
}

// insertAt inserts e keeping Entries sorted by Path, replacing any
// existing entry at the same path (invariant §3: "paths unique").
func insertAt(state *State, e CacheEntry) {
	pos := IndexNamePos(state, e.Path)
	if pos >= 0 {
		state.Entries[pos] = e
		return
	}
	at := -(pos + 1)
	state.Entries = append(state.Entries, CacheEntry{})
	copy(state.Entries[at+1:], state.Entries[at:])
	state.Entries[at] = e
}

// HashFunc computes the content-addressed blob id for a file, given
// its absolute path. Supplied by the caller (repomgr) so that this
// package stays decoupled from the object store and its encryption
// context.
type HashFunc func(fullPath string) (string, error)

// StatInfo is the subset of os.FileInfo AddToIndex needs, kept
// abstract so tests can supply synthetic stats.
type StatInfo struct {
	Ctime time.Time
	Mtime time.Time
	Size  int64
	Mode  FileMode
}

// AddToIndex inserts or refreshes the entry at relPath. If an entry
// already exists at relPath with matching stat fields, the entry is
// left untouched and hash is never invoked (spec §4.D: "short-circuits
// without re-hashing").
func AddToIndex(state *State, relPath, fullPath string, stat StatInfo, hash HashFunc) error {
	pos := IndexNamePos(state, relPath)
	if pos >= 0 {
		existing := &state.Entries[pos]
		if existing.statMatches(stat.Ctime, stat.Mtime, stat.Size) && existing.Flags&FlagRemove == 0 {
			return nil
		}
	}

	blobID, err := hash(fullPath)
	if err != nil {
		return err
	}

	insertAt(state, CacheEntry{
		Path:   relPath,
		Mode:   stat.Mode,
		BlobID: blobID,
		Ctime:  stat.Ctime,
		Mtime:  stat.Mtime,
		Size:   stat.Size,
	})
	return nil
}

// AddEmptyDirToIndex inserts an empty-directory sentinel so an
// otherwise-empty directory survives a stage/commit/checkout round
// trip (spec §3 invariant iv).
func AddEmptyDirToIndex(state *State, relPath string) {
	insertAt(state, CacheEntry{Path: relPath, Mode: ModeEmptyDir})
}

// RemoveFileFromIndex marks the entry at relPath for removal; it is
// physically dropped by the next RemoveMarkedCacheEntries pass
// (invariant §3.iii).
func RemoveFileFromIndex(state *State, relPath string) {
	pos := IndexNamePos(state, relPath)
	if pos < 0 {
		return
	}
	state.Entries[pos].Flags |= FlagRemove
}

// RemoveMarkedCacheEntries compacts out every entry carrying the
// REMOVE flag.
func RemoveMarkedCacheEntries(state *State) {
	kept := state.Entries[:0]
	for _, e := range state.Entries {
		if e.Flags.Has(FlagRemove) {
			continue
		}
		kept = append(kept, e)
	}
	state.Entries = kept
}

// IsUnmerged reports whether any entry carries a nonzero merge stage,
// meaning a prior 3-way merge left unresolved conflicts (spec §4.D).
func IsUnmerged(state *State) bool {
	for _, e := range state.Entries {
		if e.Stage != 0 {
			return true
		}
	}
	return false
}
