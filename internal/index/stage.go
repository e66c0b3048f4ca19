// internal/index/stage.go
package index

import (
	"os"
	"path/filepath"
	"strings"

	"seafrepo/internal/ignore"
)

// Stage implements the staging algorithm of spec §4.D steps 3-5 (load
// is the caller's job; step 6 write-back is UpdateIndex). It walks
// worktreeRoot under pathPrefix, adds/refreshes entries via hash, adds
// empty-directory sentinels, and marks now-missing entries for
// removal. GC coordination (spec step 1) and the worktree-validity
// check (step 2) are the repo manager's responsibility, since they
// need state this package does not have.
func Stage(state *State, worktreeRoot, pathPrefix string, hash HashFunc) error {
	prefixAbs := filepath.Join(worktreeRoot, pathPrefix)

	err := filepath.WalkDir(prefixAbs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		relPath, relErr := filepath.Rel(worktreeRoot, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		if relPath != "." && ignore.Path(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			empty, err := isEmptyDir(path)
			if err != nil || !empty {
				return nil
			}
			if relPath != "." {
				AddEmptyDirToIndex(state, relPath)
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		stat := StatInfo{
			Ctime: statCtime(info),
			Mtime: info.ModTime(),
			Size:  info.Size(),
			Mode:  ModeRegular,
		}
		return AddToIndex(state, relPath, path, stat, hash)
	})
	if err != nil {
		return err
	}

	removeDeleted(state, worktreeRoot, pathPrefix)
	RemoveMarkedCacheEntries(state)
	return nil
}

// removeDeleted marks REMOVE on every entry under pathPrefix whose
// worktree file is missing, of the wrong type, or (for a directory
// sentinel) no longer empty (spec §4.D step 5).
func removeDeleted(state *State, worktreeRoot, pathPrefix string) {
	prefix := filepath.ToSlash(pathPrefix)
	for i := range state.Entries {
		e := &state.Entries[i]
		if prefix != "" && prefix != "." && !strings.HasPrefix(e.Path, prefix) {
			continue
		}

		full := filepath.Join(worktreeRoot, e.Path)
		info, err := os.Lstat(full)
		if err != nil {
			e.Flags |= FlagRemove
			continue
		}

		switch {
		case e.Mode.IsDir():
			if !info.IsDir() {
				e.Flags |= FlagRemove
				continue
			}
			empty, err := isEmptyDir(full)
			if err != nil || !empty {
				e.Flags |= FlagRemove
			}
		default:
			if info.IsDir() || !info.Mode().IsRegular() {
				e.Flags |= FlagRemove
			}
		}
	}
}

func isEmptyDir(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if err != nil && len(names) == 0 {
		return true, nil
	}
	return len(names) == 0, nil
}
