// Package diff computes a line-by-line diff between two byte slices.
// The merge engine's three-way text merge (internal/merge) is the only
// caller: it diffs ancestor-vs-ours and ancestor-vs-theirs, then walks
// both hunk sets in lockstep against the shared ancestor line
// numbering. Because that caller never wants surrounding context
// lines, this package exposes a single stateless Lines function
// instead of a configurable diff engine.
package diff

import "bytes"

// LineType indicates whether a line was added, removed, or is context.
type LineType int

const (
	Context LineType = iota
	Addition
	Deletion
)

// Line is a single line inside a Hunk.
type Line struct {
	Type    LineType
	Content string
	OldNum  int
	NewNum  int
}

// Hunk is a contiguous run of changed (and, where present, context)
// lines.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// DiffResult is the full hunk list between two contents plus summary
// stats.
type DiffResult struct {
	Hunks []Hunk
	Stats struct {
		Additions int
		Deletions int
		Changes   int
	}
}

// Lines diffs oldContent against newContent using an LCS alignment.
// A single trailing newline on either side is ignored, matching how a
// text editor treats end-of-file.
func Lines(oldContent, newContent []byte) *DiffResult {
	oldLines := bytes.Split(bytes.TrimSuffix(oldContent, []byte{'\n'}), []byte{'\n'})
	newLines := bytes.Split(bytes.TrimSuffix(newContent, []byte{'\n'}), []byte{'\n'})

	lcs := computeLCS(oldLines, newLines)
	result := &DiffResult{Hunks: extractHunks(oldLines, newLines, lcs)}

	for _, hunk := range result.Hunks {
		for _, line := range hunk.Lines {
			switch line.Type {
			case Addition:
				result.Stats.Additions++
			case Deletion:
				result.Stats.Deletions++
			}
		}
	}
	result.Stats.Changes = result.Stats.Additions + result.Stats.Deletions

	return result
}

// computeLCS builds the longest-common-subsequence matrix over lines.
func computeLCS(oldLines, newLines [][]byte) [][]int {
	matrix := make([][]int, len(oldLines)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(newLines)+1)
	}

	for i := 1; i <= len(oldLines); i++ {
		for j := 1; j <= len(newLines); j++ {
			if bytes.Equal(oldLines[i-1], newLines[j-1]) {
				matrix[i][j] = matrix[i-1][j-1] + 1
			} else {
				matrix[i][j] = max(matrix[i-1][j], matrix[i][j-1])
			}
		}
	}

	return matrix
}

// extractHunks walks the LCS matrix backward from (len(oldLines),
// len(newLines)), emitting one hunk per contiguous run of
// additions/deletions. The flush check fires as soon as a hunk gains
// any lines, so an adjacent deletion+insertion pair at the same
// ancestor position ends up as two separate hunks rather than one
// replacement span; Coalesce (helpers.go) undoes that for callers that
// need contiguous spans.
func extractHunks(oldLines, newLines [][]byte, lcs [][]int) []Hunk {
	var hunks []Hunk
	var currentHunk *Hunk

	i, j := len(oldLines), len(newLines)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && bytes.Equal(oldLines[i-1], newLines[j-1]):
			if currentHunk != nil {
				currentHunk.Lines = append([]Line{{
					Type:    Context,
					Content: string(oldLines[i-1]),
					OldNum:  i,
					NewNum:  j,
				}}, currentHunk.Lines...)
			}
			i--
			j--
		case j > 0 && (i == 0 || lcs[i][j-1] >= lcs[i-1][j]):
			if currentHunk == nil {
				currentHunk = &Hunk{OldStart: i, NewStart: j}
			}
			currentHunk.Lines = append([]Line{{
				Type:    Addition,
				Content: string(newLines[j-1]),
				NewNum:  j,
			}}, currentHunk.Lines...)
			currentHunk.NewLines++
			j--
		case i > 0:
			if currentHunk == nil {
				currentHunk = &Hunk{OldStart: i, NewStart: j}
			}
			currentHunk.Lines = append([]Line{{
				Type:    Deletion,
				Content: string(oldLines[i-1]),
				OldNum:  i,
			}}, currentHunk.Lines...)
			currentHunk.OldLines++
			i--
		}

		if currentHunk != nil && len(currentHunk.Lines) > 0 {
			hunks = append([]Hunk{*currentHunk}, hunks...)
			currentHunk = nil
		}
	}

	return hunks
}
