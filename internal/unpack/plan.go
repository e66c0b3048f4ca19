// Package unpack implements the tree walker / unpack engine (spec
// §4.F): the component that turns two tree snapshots (or a tree and
// the current index) into a worktree action plan, and then applies
// that plan to disk. Grounded on the original seaf-daemon's
// diff_trees/traverse_trees oneway_merge and twoway_merge, expressed
// with the teacher's atomic-write idiom (temp file + fsync + rename,
// as in internal/index/persist.go) rather than in-place overwrite.
package unpack

import (
	"sort"

	"seafrepo/internal/cachetree"
	"seafrepo/internal/objectstore"
)

// Action describes what UpdateWorktree must do for one path.
type Action int

const (
	// Keep leaves the worktree file untouched.
	Keep Action = iota
	// Update writes toID's content to the worktree path, creating
	// parent directories as needed.
	Update
	// WTRemove deletes the worktree path (file or now-empty directory).
	WTRemove
	// Conflict means twoWayMerge found a local modification that
	// collides with the incoming change; the caller must not touch the
	// worktree at this path and should surface it to the merge engine.
	Conflict
)

// PlanEntry is one path's disposition in an unpack plan.
type PlanEntry struct {
	Path   string
	Action Action
	Mode   cachetree.EntryMode
	ID     string // blob id for a file Update, tree id for an untouched dir marker
}

// Plan is an ordered, deterministic worktree action list.
type Plan []PlanEntry

func sortPlan(p Plan) {
	sort.Slice(p, func(i, j int) bool { return p[i].Path < p[j].Path })
}

func indexFlat(entries []cachetree.FlatEntry) map[string]cachetree.FlatEntry {
	m := make(map[string]cachetree.FlatEntry, len(entries))
	for _, e := range entries {
		m[e.Path] = e
	}
	return m
}

// OnewayMerge builds a plan that forces the worktree to match toHash
// exactly, discarding whatever is currently there (spec's reset /
// checkout-from-scratch path: "no attempt to preserve local changes").
// fromHash may be empty for a first-ever checkout.
func OnewayMerge(store *objectstore.Store, fromHash, toHash string) (Plan, error) {
	var from, to []cachetree.FlatEntry
	var err error

	if fromHash != "" {
		from, err = cachetree.Flatten(store, fromHash)
		if err != nil {
			return nil, err
		}
	}
	if toHash != "" {
		to, err = cachetree.Flatten(store, toHash)
		if err != nil {
			return nil, err
		}
	}

	fromSet := indexFlat(from)
	toSet := indexFlat(to)

	var plan Plan
	for path, e := range toSet {
		plan = append(plan, PlanEntry{Path: path, Action: Update, Mode: e.Mode, ID: e.ID})
	}
	for path := range fromSet {
		if _, stillPresent := toSet[path]; !stillPresent {
			plan = append(plan, PlanEntry{Path: path, Action: WTRemove})
		}
	}

	sortPlan(plan)
	return plan, nil
}
