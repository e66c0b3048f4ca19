// Package index implements the staging area of spec §4.D: an ordered,
// sorted-by-path sequence of cache entries mirroring the next commit.
// Grounded on the teacher's workspace.LocalWorkspace.GatedChanges (a
// path -> Change map serialized to BadgerDB), generalized to the
// spec's on-disk, sorted, flag-bit cache-entry format serialized to a
// dedicated per-repo file rather than the metadata DB.
package index

import "time"

// FileMode distinguishes a tracked regular file from an empty-directory
// sentinel (spec §3 Index: "empty-directory sentinels may exist so
// that purely-empty trees are representable").
type FileMode int

const (
	ModeRegular  FileMode = 0100644
	ModeExec     FileMode = 0100755
	ModeEmptyDir FileMode = 0040000
)

func (m FileMode) IsDir() bool { return m == ModeEmptyDir }

// EntryFlags are the per-entry bits named in spec §3.
type EntryFlags uint8

const (
	FlagRemove EntryFlags = 1 << iota
	FlagUpdate
	FlagWTRemove
)

func (f EntryFlags) Has(bit EntryFlags) bool { return f&bit != 0 }

// CacheEntry is one staged path (spec §3 Index).
type CacheEntry struct {
	Path  string     `json:"path"`
	Mode  FileMode   `json:"mode"`
	BlobID string    `json:"blob_id"`
	Ctime time.Time  `json:"ctime"`
	Mtime time.Time  `json:"mtime"`
	Size  int64      `json:"size"`
	Flags EntryFlags `json:"flags"`
	// Stage is 0 for a normally-merged entry, or 1/2/3 during an
	// unresolved 3-way merge (ancestor/ours/theirs), spec §4.D
	// is_unmerged.
	Stage int `json:"stage"`
}

func (e *CacheEntry) statMatches(ctime, mtime time.Time, size int64) bool {
	return e.Ctime.Equal(ctime) && e.Mtime.Equal(mtime) && e.Size == size
}

// magic and version identify the on-disk index format (spec §4.D: "an
// ordered cache-entry file with a header magic and version").
const (
	magic          = "SFIDX001"
	currentVersion = 1
)

// State is the in-memory staging area, always kept sorted by Path.
type State struct {
	Version int
	Entries []CacheEntry
}

// NewState returns an empty ("unborn") index.
func NewState() *State {
	return &State{Version: currentVersion}
}
