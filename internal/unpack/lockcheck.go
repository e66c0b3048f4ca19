package unpack

import "fmt"

// LockChecker reports which of the given worktree-relative paths are
// currently held open by another process, so UpdateWorktree can abort
// before touching anything rather than mid-apply (spec §4.F "Windows
// lock check": before destructive worktree changes, scan planned
// writes/removes for files held open by other processes; abort if any
// are locked). A nil LockChecker skips the scan entirely.
type LockChecker interface {
	Locked(root string, paths []string) ([]string, error)
}

// LockedFilesError is returned when a LockChecker reports one or more
// planned paths are held open by another process.
type LockedFilesError struct {
	Paths []string
}

func (e *LockedFilesError) Error() string {
	return fmt.Sprintf("%d worktree path(s) are locked by another process", len(e.Paths))
}
