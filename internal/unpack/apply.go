package unpack

import (
	"fmt"
	"os"
	"path/filepath"

	"seafrepo/internal/errors"
	"seafrepo/internal/objectstore"
)

// Progress reports plan-application progress after each entry, mirroring
// the original checkout task's finished/total file counters.
type Progress func(finished, total int)

// ConflictError is returned when applying a plan would need to
// overwrite an uncommitted local change. It is returned before any
// worktree file is touched, and repomgr passes it on to its caller.
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d worktree path(s) conflict with the checkout target", len(e.Paths))
}

// UpdateWorktree applies plan under root. Update entries are written
// via a temp-file-then-rename so a crash mid-checkout never leaves a
// half-written file at the final path (spec §4.F, matching
// internal/index's atomic index write). Conflict entries abort the
// whole apply before any file is touched, since a partially-applied
// checkout is worse than none. locks is consulted next, over every
// planned Update/WTRemove path, and aborts the same way if any are
// held open by another process (spec §4.F "Windows lock check"); pass
// nil to skip it.
func UpdateWorktree(store *objectstore.Store, crypt *objectstore.Crypto, root string, plan Plan, progress Progress, locks LockChecker) error {
	var conflicts []string
	for _, e := range plan {
		if e.Action == Conflict {
			conflicts = append(conflicts, e.Path)
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Paths: conflicts}
	}

	if locks != nil {
		var candidates []string
		for _, e := range plan {
			if e.Action == Update || e.Action == WTRemove {
				candidates = append(candidates, e.Path)
			}
		}
		lockedPaths, err := locks.Locked(root, candidates)
		if err != nil {
			return fmt.Errorf("checking file locks: %w", err)
		}
		if len(lockedPaths) > 0 {
			return &LockedFilesError{Paths: lockedPaths}
		}
	}

	total := len(plan)
	finished := 0
	report := func() {
		finished++
		if progress != nil {
			progress(finished, total)
		}
	}

	// Removals run before updates so a file-to-directory (or vice versa)
	// type change at the same path never collides mid-apply.
	for _, e := range plan {
		if e.Action != WTRemove {
			continue
		}
		if err := removePath(root, e.Path); err != nil {
			return fmt.Errorf("removing %s: %w", e.Path, err)
		}
		report()
	}

	for _, e := range plan {
		switch e.Action {
		case Update:
			if err := writeEntry(store, crypt, root, e); err != nil {
				return fmt.Errorf("writing %s: %w", e.Path, err)
			}
			report()
		case Keep:
			report()
		}
	}

	return nil
}

func removePath(root, relPath string) error {
	full := filepath.Join(root, relPath)
	if err := os.RemoveAll(full); err != nil {
		return err
	}
	pruneEmptyParents(root, filepath.Dir(full))
	return nil
}

// pruneEmptyParents removes now-empty ancestor directories up to root,
// so a WTRemove of the last file in a directory doesn't leave a stray
// empty directory behind unless it was explicitly staged as one.
func pruneEmptyParents(root, dir string) {
	for dir != root && len(dir) > len(root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func writeEntry(store *objectstore.Store, crypt *objectstore.Crypto, root string, e PlanEntry) error {
	full := filepath.Join(root, e.Path)

	if e.Mode.IsDirMode() {
		return os.MkdirAll(full, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}

	content, err := store.GetBlob(e.ID, crypt)
	if err != nil {
		if err == objectstore.ErrWrongPassword {
			return errors.PasswordError("cannot decrypt blob for checkout")
		}
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".checkout-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	mode := os.FileMode(0644)
	if e.Mode.IsExecMode() {
		mode = 0755
	}

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return err
	}
	return os.Rename(tmpPath, full)
}
