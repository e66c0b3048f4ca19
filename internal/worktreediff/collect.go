package worktreediff

import (
	"os"
	"path/filepath"

	"seafrepo/internal/ignore"
	"seafrepo/internal/index"
)

// CollectWorktreeChanges compares each index entry against the file
// currently on disk (spec §4.H collect_changes_worktree): DELETED if
// the worktree path is now missing; when size or mtime differ the file
// is re-hashed and reported MODIFIED only if the content hash differs.
// A stat difference with unchanged content is not reported, and ctime
// is not compared.
func CollectWorktreeChanges(state *index.State, worktreeRoot string, hash index.HashFunc) ([]Change, error) {
	var changes []Change

	for _, e := range state.Entries {
		if e.Flags.Has(index.FlagRemove) || e.Mode.IsDir() {
			continue
		}

		full := filepath.Join(worktreeRoot, e.Path)
		info, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				changes = append(changes, Change{Type: Deleted, Path: e.Path, BlobID: e.BlobID})
				continue
			}
			return nil, err
		}

		if info.Size() == e.Size && info.ModTime().Equal(e.Mtime) {
			continue
		}

		newHash, err := hash(full)
		if err != nil {
			return nil, err
		}
		if newHash != e.BlobID {
			changes = append(changes, Change{Type: Modified, Path: e.Path, BlobID: newHash})
		}
	}

	return changes, nil
}

// CollectUntracked walks the worktree for paths absent from the index
// and not ignored, emitting Added for files and DirAdded for empty
// directories (spec §4.H collect_untracked).
func CollectUntracked(state *index.State, worktreeRoot string) ([]Change, error) {
	tracked := make(map[string]bool, len(state.Entries))
	for _, e := range state.Entries {
		if !e.Flags.Has(index.FlagRemove) {
			tracked[e.Path] = true
		}
	}

	var changes []Change
	err := filepath.WalkDir(worktreeRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(worktreeRoot, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ignore.Path(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if tracked[rel] {
			return nil
		}

		if d.IsDir() {
			entries, err := os.ReadDir(path)
			if err == nil && len(entries) == 0 {
				changes = append(changes, Change{Type: DirAdded, Path: rel})
			}
			return nil
		}
		if d.Type().IsRegular() {
			changes = append(changes, Change{Type: Added, Path: rel})
		}
		return nil
	})
	return changes, err
}
