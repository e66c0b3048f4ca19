// Package cachetree derives the tree-object DAG for a commit from the
// sorted index (spec §4.E "Cache Tree"): a deterministic mapping from
// a flat, sorted set of staged paths to a nested structure of content-
// addressed tree objects, rooted at the id that becomes the commit's
// root_tree_id. Grounded on the teacher's objectstore idiom
// (internal/objectstore.Store.PutCanonical) plus the original
// seaf-daemon's commit_tree/index_to_cache_tree (repo-mgr.c).
package cachetree

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"seafrepo/internal/index"
	"seafrepo/internal/objectstore"
)

// EntryMode mirrors index.FileMode for the two shapes a tree entry can
// take: a subdirectory (another tree object) or a file (a blob).
type EntryMode int

const (
	ModeDir     EntryMode = 0040000
	ModeRegular EntryMode = 0100644
	ModeExec    EntryMode = 0100755
)

// IsDirMode reports whether mode denotes a subdirectory tree entry.
func (m EntryMode) IsDirMode() bool { return m == ModeDir }

// IsExecMode reports whether mode denotes an executable file.
func (m EntryMode) IsExecMode() bool { return m == ModeExec }

// Entry is one child of a Tree, keyed by its bare (non-path) name.
type Entry struct {
	Name string    `json:"name"`
	Mode EntryMode `json:"mode"`
	ID   string    `json:"id"` // tree hash if Mode == ModeDir, else blob hash
}

// Tree is the canonical, sortable representation of a directory. Its
// object id is the SHA-1 of its canonical JSON encoding (spec §3:
// "Deterministic tree id" — same contents always produce the same id
// regardless of staging order).
type Tree struct {
	Entries []Entry `json:"entries"`
}

func canonicalize(t *Tree) []byte {
	sort.Slice(t.Entries, func(i, j int) bool { return t.Entries[i].Name < t.Entries[j].Name })
	body, _ := json.Marshal(t)
	return body
}

// node is the mutable scratch structure used while folding the flat
// index into nested directories; it is never itself serialized.
type node struct {
	children map[string]*node
	blobID   string // set on a leaf file node
	mode     EntryMode
	isFile   bool
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

func (n *node) child(name string) *node {
	c, ok := n.children[name]
	if !ok {
		c = newNode()
		n.children[name] = c
	}
	return c
}

// Build folds state's staged entries into a tree DAG and returns the
// root tree's object id. Regular-file and empty-directory sentinel
// entries are both accepted; a directory that holds files needs no
// sentinel of its own, since its presence is implied by its children.
func Build(state *index.State, store *objectstore.Store) (string, error) {
	root := newNode()

	for _, e := range state.Entries {
		if e.Flags.Has(index.FlagRemove) {
			continue
		}
		clean := strings.Trim(path.Clean("/"+e.Path), "/")
		if clean == "" || clean == "." {
			continue
		}
		parts := strings.Split(clean, "/")

		cur := root
		for _, part := range parts[:len(parts)-1] {
			cur = cur.child(part)
		}
		leaf := parts[len(parts)-1]

		if e.Mode.IsDir() {
			// Empty-directory sentinel: touch the node so it exists even
			// with zero children, but don't mark it a file.
			cur.child(leaf)
			continue
		}

		fileNode := cur.child(leaf)
		fileNode.isFile = true
		fileNode.blobID = e.BlobID
		if e.Mode == index.ModeExec {
			fileNode.mode = ModeExec
		} else {
			fileNode.mode = ModeRegular
		}
	}

	return writeNode(root, store)
}

func writeNode(n *node, store *objectstore.Store) (string, error) {
	if n.isFile {
		return n.blobID, nil
	}

	t := &Tree{}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		child := n.children[name]
		id, err := writeNode(child, store)
		if err != nil {
			return "", fmt.Errorf("building subtree %q: %w", name, err)
		}
		mode := ModeDir
		if child.isFile {
			mode = child.mode
		}
		t.Entries = append(t.Entries, Entry{Name: name, Mode: mode, ID: id})
	}

	hash, err := store.PutCanonical(objectstore.KindTree, canonicalize(t))
	if err != nil {
		return "", fmt.Errorf("writing tree object: %w", err)
	}
	return hash, nil
}
