// internal/commit/manager.go
package commit

import (
	"encoding/json"
	"fmt"

	"seafrepo/internal/objectstore"
)

// canonicalForm is Commit minus its own ID: the bytes hashed to
// produce that ID (spec §3: "id (SHA-1 over canonical serialization)").
type canonicalForm struct {
	RepoID           string             `json:"repo_id"`
	RootTreeID       string             `json:"root_tree_id"`
	Creator          string             `json:"creator"`
	CreatorSessionID string             `json:"creator_session_id"`
	Description      string             `json:"description"`
	CreatedAtUnix    int64              `json:"created_at_unix"`
	ParentID         string             `json:"parent_id,omitempty"`
	SecondParentID   string             `json:"second_parent_id,omitempty"`
	RepoName         string             `json:"repo_name"`
	RepoDesc         string             `json:"repo_desc"`
	Encryption       EncryptionSnapshot `json:"encryption"`
}

func canonicalBytes(c *Commit) ([]byte, error) {
	cf := canonicalForm{
		RepoID:           c.RepoID,
		RootTreeID:       c.RootTreeID,
		Creator:          c.Creator,
		CreatorSessionID: c.CreatorSessionID,
		Description:      c.Description,
		CreatedAtUnix:    c.CreatedAt.UTC().UnixNano(),
		ParentID:         c.ParentID,
		SecondParentID:   c.SecondParentID,
		RepoName:         c.RepoName,
		RepoDesc:         c.RepoDesc,
		Encryption:       c.Encryption,
	}
	return json.Marshal(cf)
}

// Manager creates, loads, and traverses commits backed by an object
// store. It holds no in-memory state of its own beyond the store
// handle: commits are immutable and content-addressed, so there is
// nothing to cache correctness-wise (the object store's own LRU cache
// already speeds up repeated loads).
type Manager struct {
	store *objectstore.Store
}

func NewManager(store *objectstore.Store) *Manager {
	return &Manager{store: store}
}

// Create computes c's id from its canonical form, persists it, and
// returns the finished, immutable Commit (a copy with ID populated).
func (m *Manager) Create(c Commit) (*Commit, error) {
	body, err := canonicalBytes(&c)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing commit: %w", err)
	}

	hash, err := m.store.PutCanonical(objectstore.KindCommit, body)
	if err != nil {
		return nil, fmt.Errorf("writing commit object: %w", err)
	}
	c.ID = hash

	full, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling commit: %w", err)
	}
	// Store the full record (including id) keyed by that same id, so
	// Load can recover all fields without recomputing the hash body.
	if err := m.store.PutRaw(fullRecordKind, c.ID, full); err != nil {
		return nil, fmt.Errorf("writing commit record: %w", err)
	}

	return &c, nil
}

const fullRecordKind = objectstore.ObjectKind("commit-full")

// Load fetches a commit by id.
func (m *Manager) Load(id string) (*Commit, error) {
	full, err := m.store.GetRaw(fullRecordKind, id)
	if err != nil {
		return nil, err
	}
	var c Commit
	if err := json.Unmarshal(full, &c); err != nil {
		return nil, fmt.Errorf("corrupt commit %s: %w", id, err)
	}
	return &c, nil
}

// WalkAncestors visits c and its ancestors breadth-first (a commit's
// first parent is queued before its second parent, spec §4.B "visitor
// callback (commit) -> (continue?) with a stop flag"). Every commit
// reachable is visited exactly once. visit returning false stops the
// walk early; each call keeps its own queue and seen-set, so there is
// nothing shared to release wherever the walk stops.
func (m *Manager) WalkAncestors(start *Commit, visit func(*Commit) bool) error {
	seen := make(map[string]bool)
	queue := []*Commit{start}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		if c == nil || seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		if !visit(c) {
			return nil
		}

		for _, pid := range c.Parents() {
			parent, err := m.Load(pid)
			if err != nil {
				return fmt.Errorf("loading ancestor %s: %w", pid, err)
			}
			queue = append(queue, parent)
		}
	}
	return nil
}

// Ancestors returns every commit id reachable from start, including
// start itself.
func (m *Manager) Ancestors(start *Commit) (map[string]bool, error) {
	set := make(map[string]bool)
	err := m.WalkAncestors(start, func(c *Commit) bool {
		set[c.ID] = true
		return true
	})
	return set, err
}
