package repomgr

import (
	"fmt"

	"seafrepo/internal/worktreediff"
)

// GenCommitDescription synthesizes a commit message from a set of
// staged changes when the caller passed an empty one, in the style
// "Added \"foo.txt\"." or "Modified \"foo.txt\" and 2 more files."
// (SUPPLEMENTED FEATURE: gen_commit_description/status_to_description).
func GenCommitDescription(changes []worktreediff.Change) string {
	if len(changes) == 0 {
		return "No changes."
	}

	byType := make(map[worktreediff.ChangeType][]worktreediff.Change)
	for _, c := range changes {
		byType[c.Type] = append(byType[c.Type], c)
	}

	// Report the largest group first, matching the original's
	// single-dominant-action summary rather than an exhaustive list.
	var dominant worktreediff.ChangeType
	best := -1
	for t, group := range byType {
		if len(group) > best {
			best = len(group)
			dominant = t
		}
	}

	group := byType[dominant]
	verb := statusVerb(dominant)
	first := group[0]

	if len(group) == 1 {
		return fmt.Sprintf("%s %q.", verb, displayPath(first))
	}
	return fmt.Sprintf("%s %q and %d more files.", verb, displayPath(first), len(group)-1)
}

func displayPath(c worktreediff.Change) string {
	if c.Type == worktreediff.Renamed {
		return c.Path
	}
	return c.Path
}

func statusVerb(t worktreediff.ChangeType) string {
	switch t {
	case worktreediff.Added, worktreediff.DirAdded:
		return "Added"
	case worktreediff.Deleted, worktreediff.DirDeleted:
		return "Deleted"
	case worktreediff.Modified:
		return "Modified"
	case worktreediff.Renamed:
		return "Renamed"
	default:
		return "Changed"
	}
}
