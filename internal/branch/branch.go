// Package branch implements the branch registry of spec §4.C: named,
// mutable pointers into the commit DAG, keyed per repo. Grounded on
// the teacher's storage.BadgerStore generic entity table, generalized
// from a single flat namespace to one namespace per repo_id (matching
// the original seaf-daemon's RepoBranch join between repos and named
// branches).
package branch

import (
	"fmt"
	"strings"
	"sync"

	"seafrepo/internal/errors"
	"seafrepo/internal/storage"
)

// Branch is a named, mutable pointer at a commit (spec §3 Branch).
type Branch struct {
	RepoID   string `json:"repo_id"`
	Name     string `json:"name"`
	CommitID string `json:"commit_id"`
}

// GetID composes a namespaced key so ListByPrefix can scan a single
// repo's branches without listing every repo's.
func (b *Branch) GetID() string {
	return fmt.Sprintf("%s/%s", b.RepoID, b.Name)
}

// DefaultName is the branch every repo's worktree tracks unless told
// otherwise, mirroring seaf-daemon's hard-coded "local" head branch.
const DefaultName = "local"

// Registry manages branches across all repos. A per-registry mutex
// serializes head-pointer swaps so a concurrent commit and checkout on
// the same branch can't interleave (spec §5: "branch head updates are
// serialized per repo").
type Registry struct {
	store *storage.BadgerStore
	mu    sync.Mutex
}

func NewRegistry(store *storage.BadgerStore) *Registry {
	return &Registry{store: store}
}

// Create registers a new branch at commitID. It fails if the branch
// already exists (spec: branch creation is not upsert semantics,
// unlike repo properties).
func (r *Registry) Create(repoID, name, commitID string) (*Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := &Branch{RepoID: repoID, Name: name, CommitID: commitID}
	if err := r.store.Create(b); err != nil {
		return nil, errors.Conflict(fmt.Sprintf("branch %s/%s already exists", repoID, name))
	}
	return b, nil
}

// Get loads a single branch.
func (r *Registry) Get(repoID, name string) (*Branch, error) {
	var b Branch
	id := (&Branch{RepoID: repoID, Name: name}).GetID()
	if err := r.store.Get(id, &b); err != nil {
		return nil, errors.NotFound(fmt.Sprintf("branch %s/%s not found", repoID, name))
	}
	return &b, nil
}

// List returns every branch belonging to repoID.
func (r *Registry) List(repoID string) ([]Branch, error) {
	var branches []Branch
	if err := r.store.ListByPrefix(repoID+"/", &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

// SetHead atomically swaps a branch's commit pointer. Callers pass the
// commit id they expect to currently be at the head, so a concurrent
// swap from another goroutine or process is caught rather than
// silently overwritten (spec §5 concurrency: "commit creation is a
// compare-and-swap on the branch head").
func (r *Registry) SetHead(repoID, name, expectedCommitID, newCommitID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.Get(repoID, name)
	if err != nil {
		return err
	}
	if current.CommitID != expectedCommitID {
		return errors.Conflict(fmt.Sprintf(
			"branch %s/%s head changed concurrently (expected %s, found %s)",
			repoID, name, expectedCommitID, current.CommitID))
	}

	current.CommitID = newCommitID
	return r.store.Update(current)
}

// Delete removes a branch. The repo's own last commit is not touched;
// callers must not delete a repo's only branch while it is checked
// out (enforced by the repo manager, not here).
func (r *Registry) Delete(repoID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := (&Branch{RepoID: repoID, Name: name}).GetID()
	return r.store.Delete(id)
}

// DeleteAll removes every branch for repoID, used by repo deletion's
// cleanup sweep.
func (r *Registry) DeleteAll(repoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.DeleteByPrefix(repoID + "/")
}

// IsValidName rejects branch names that would collide with the "/"
// namespace separator GetID relies on.
func IsValidName(name string) bool {
	return name != "" && !strings.Contains(name, "/")
}
