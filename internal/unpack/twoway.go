package unpack

import (
	"seafrepo/internal/cachetree"
	"seafrepo/internal/index"
	"seafrepo/internal/objectstore"
)

// TwowayMerge builds a checkout plan from headHash to targetHash,
// consulting the staged index so a path with an uncommitted local
// change is flagged Conflict instead of silently overwritten (spec's
// checkout path, as opposed to OnewayMerge's reset path).
func TwowayMerge(store *objectstore.Store, state *index.State, headHash, targetHash string) (Plan, error) {
	var head, target []cachetree.FlatEntry
	var err error

	if headHash != "" {
		head, err = cachetree.Flatten(store, headHash)
		if err != nil {
			return nil, err
		}
	}
	if targetHash != "" {
		target, err = cachetree.Flatten(store, targetHash)
		if err != nil {
			return nil, err
		}
	}

	headSet := indexFlat(head)
	targetSet := indexFlat(target)
	staged := stagedBlobs(state)

	var plan Plan
	for path, t := range targetSet {
		h, inHead := headSet[path]
		s, inStaged := staged[path]

		switch {
		case inStaged && inHead && s != h.ID:
			// Locally modified relative to HEAD; only safe to fast-forward
			// if the checkout target agrees with the local change.
			if s == t.ID {
				plan = append(plan, PlanEntry{Path: path, Action: Keep, Mode: t.Mode, ID: t.ID})
			} else {
				plan = append(plan, PlanEntry{Path: path, Action: Conflict, Mode: t.Mode, ID: t.ID})
			}
		case inStaged && !inHead && s != t.ID:
			// Locally added a path the checkout also wants to add, with
			// different content.
			plan = append(plan, PlanEntry{Path: path, Action: Conflict, Mode: t.Mode, ID: t.ID})
		case inHead && h.ID == t.ID:
			plan = append(plan, PlanEntry{Path: path, Action: Keep, Mode: t.Mode, ID: t.ID})
		default:
			plan = append(plan, PlanEntry{Path: path, Action: Update, Mode: t.Mode, ID: t.ID})
		}
	}

	for path, h := range headSet {
		if _, stillWanted := targetSet[path]; stillWanted {
			continue
		}
		if s, inStaged := staged[path]; inStaged && s != h.ID {
			// Locally modified a path the checkout wants gone: conflict
			// rather than silent data loss.
			plan = append(plan, PlanEntry{Path: path, Action: Conflict})
			continue
		}
		plan = append(plan, PlanEntry{Path: path, Action: WTRemove})
	}

	sortPlan(plan)
	return plan, nil
}

// stagedBlobs maps every non-removed regular-file index entry to its
// staged blob id, for comparison against HEAD and the checkout target.
func stagedBlobs(state *index.State) map[string]string {
	m := make(map[string]string, len(state.Entries))
	for _, e := range state.Entries {
		if e.Flags.Has(index.FlagRemove) || e.Mode.IsDir() {
			continue
		}
		m[e.Path] = e.BlobID
	}
	return m
}
