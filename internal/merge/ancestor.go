// Package merge implements the merge engine (spec §4.I): common-
// ancestor discovery, fast-forward/no-op detection, and 3-way content
// merge with inline conflict markers. Grounded on internal/commit's
// WalkAncestors/Ancestors (BFS over the commit DAG) and the teacher's
// internal/diff LCS engine, adapted from two-way line diffing to
// three-way merge with conflict regions.
package merge

import (
	"seafrepo/internal/commit"
)

// FindCommonAncestor returns a lowest common ancestor of a and b: a
// common ancestor that is not itself an ancestor of any other common
// ancestor. When more than one such merge base exists, the earliest
// created wins (spec §4.I step 1: "any correct algorithm; tie-break by
// earliest creation time").
func FindCommonAncestor(cm *commit.Manager, a, b *commit.Commit) (*commit.Commit, error) {
	aAncestors, err := cm.Ancestors(a)
	if err != nil {
		return nil, err
	}
	bAncestors, err := cm.Ancestors(b)
	if err != nil {
		return nil, err
	}

	var commonIDs []string
	for id := range aAncestors {
		if bAncestors[id] {
			commonIDs = append(commonIDs, id)
		}
	}
	if len(commonIDs) == 0 {
		return nil, nil
	}

	commits := make(map[string]*commit.Commit, len(commonIDs))
	ancestorSets := make(map[string]map[string]bool, len(commonIDs))
	for _, id := range commonIDs {
		c, err := cm.Load(id)
		if err != nil {
			return nil, err
		}
		commits[id] = c
		set, err := cm.Ancestors(c)
		if err != nil {
			return nil, err
		}
		ancestorSets[id] = set
	}

	// A common ancestor is dominated (not maximal) if it appears in
	// another common ancestor's own ancestor set.
	dominated := make(map[string]bool, len(commonIDs))
	for _, id := range commonIDs {
		for _, other := range commonIDs {
			if id == other {
				continue
			}
			if ancestorSets[other][id] {
				dominated[id] = true
				break
			}
		}
	}

	var best *commit.Commit
	for _, id := range commonIDs {
		if dominated[id] {
			continue
		}
		c := commits[id]
		if best == nil || c.CreatedAt.Before(best.CreatedAt) {
			best = c
		}
	}
	return best, nil
}
