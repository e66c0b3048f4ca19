package cachetree

import (
	"encoding/json"
	"fmt"

	"seafrepo/internal/objectstore"
)

// Load fetches and decodes the tree object at hash.
func Load(store *objectstore.Store, hash string) (*Tree, error) {
	data, err := store.GetCanonical(objectstore.KindTree, hash)
	if err != nil {
		return nil, fmt.Errorf("loading tree %s: %w", hash, err)
	}
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("corrupt tree %s: %w", hash, err)
	}
	return &t, nil
}

// FlatEntry is one fully-qualified path produced by Flatten.
type FlatEntry struct {
	Path string
	Mode EntryMode
	ID   string
}

// Flatten walks the tree rooted at hash and returns every entry (files
// and empty directories) with its full path, in depth-first tree order
// with each directory's children by name; this is not always byte
// order of the full paths ("a/b" comes before "a.txt"). Used by the
// unpack engine and worktree diff to compare against an index or
// worktree snapshot (spec §4.F).
func Flatten(store *objectstore.Store, hash string) ([]FlatEntry, error) {
	var out []FlatEntry
	if err := flatten(store, hash, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(store *objectstore.Store, hash, prefix string, out *[]FlatEntry) error {
	t, err := Load(store, hash)
	if err != nil {
		return err
	}
	if len(t.Entries) == 0 && prefix != "" {
		*out = append(*out, FlatEntry{Path: prefix, Mode: ModeDir, ID: hash})
		return nil
	}
	for _, e := range t.Entries {
		full := e.Name
		if prefix != "" {
			full = prefix + "/" + e.Name
		}
		if e.Mode == ModeDir {
			if err := flatten(store, e.ID, full, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, FlatEntry{Path: full, Mode: e.Mode, ID: e.ID})
	}
	return nil
}
