package merge

import (
	"bytes"
	"strings"

	"seafrepo/internal/diff"
)

// isBinary uses the conventional NUL-byte heuristic to decide whether
// a file is safe to line-merge or must fall back to keep-both-versions
// (spec §4.I: "for binary conflicts, keep both versions under suffixed
// names").
func isBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) >= 0
}

// ConflictMarkerBegin/Separator/End are the inline markers written
// into a text file when both sides changed the same region, in the
// conventional two-sided style (no ancestor section).
const (
	ConflictMarkerBegin     = "<<<<<<< ours"
	ConflictMarkerSeparator = "======="
	ConflictMarkerEnd       = ">>>>>>> theirs"
)

// ThreeWayMerge merges ours and theirs against ancestor, line by line.
// A line changed on only one side is taken as-is; a line changed
// identically on both sides is taken once; a line changed differently
// on both sides is wrapped in conflict markers and reports conflict=true.
func ThreeWayMerge(ancestor, ours, theirs []byte) (merged []byte, conflict bool) {
	aLines := splitLines(ancestor)

	oursDiff := diff.Lines(ancestor, ours)
	theirsDiff := diff.Lines(ancestor, theirs)

	oursOps := diff.OpsByOldLine(diff.Coalesce(oursDiff.Hunks))
	theirsOps := diff.OpsByOldLine(diff.Coalesce(theirsDiff.Hunks))

	var out []string
	i := 0
	for i < len(aLines) {
		oOp, oHas := oursOps[i]
		tOp, tHas := theirsOps[i]

		switch {
		case !oHas && !tHas:
			out = append(out, aLines[i])
			i++
		case oHas && !tHas:
			out = append(out, oOp.Lines...)
			i += oOp.Consumed
		case !oHas && tHas:
			out = append(out, tOp.Lines...)
			i += tOp.Consumed
		default:
			if linesEqual(oOp.Lines, tOp.Lines) {
				out = append(out, oOp.Lines...)
				i += max(oOp.Consumed, tOp.Consumed)
			} else {
				conflict = true
				out = append(out, ConflictMarkerBegin)
				out = append(out, oOp.Lines...)
				out = append(out, ConflictMarkerSeparator)
				out = append(out, tOp.Lines...)
				out = append(out, ConflictMarkerEnd)
				i += max(oOp.Consumed, tOp.Consumed)
			}
		}
	}

	return []byte(strings.Join(out, "\n")), conflict
}

func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
