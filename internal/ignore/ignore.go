// Package ignore holds the process-wide immutable ignore ruleset (spec
// §6) consulted by both staging (internal/index) and untracked-file
// detection (internal/worktreediff). Grounded on the teacher's
// workspace.shouldIgnore, generalized from a fixed switch statement to
// the exact glob/character ruleset the spec names.
package ignore

import "strings"

// suffixPatterns and globPatterns are matched case-sensitively against
// the filename only, never the full path.
var suffixPatterns = []string{
	"~", "#", ".tmp", ".TMP",
}

var msOfficeLockFiles = []string{
	".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
}

var exactNames = map[string]bool{
	"Thumbs.db": true,
	".DS_Store": true,
}

// illegalChars are the Windows-illegal path characters plus backspace
// and tab, matched anywhere in the filename.
const illegalChars = "\\/:*?\"<>|\b\t"

// Filename reports whether a bare filename (no directory components)
// must be excluded from both the index and untracked-file walks.
func Filename(name string) bool {
	if name == "" {
		return true
	}

	if exactNames[name] {
		return true
	}

	for _, suf := range suffixPatterns {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}

	for _, ext := range msOfficeLockFiles {
		if strings.HasPrefix(name, "~$") && strings.HasSuffix(name, ext) {
			return true
		}
	}

	if strings.ContainsAny(name, illegalChars) {
		return true
	}

	for i := 0; i < len(name); i++ {
		if name[i] >= 0x01 && name[i] <= 0x1F {
			return true
		}
	}

	if strings.HasSuffix(name, " ") {
		return true
	}

	return false
}

// TrailingSpace reports whether any path component of a full relative
// path contains a trailing space, per spec §4.D step 4 ("skipping ...
// any path containing a trailing space").
func TrailingSpace(relPath string) bool {
	parts := strings.Split(relPath, "/")
	for _, p := range parts {
		if strings.HasSuffix(p, " ") {
			return true
		}
	}
	return false
}

// Path reports whether a full slash-separated relative path should be
// ignored: any path component fails Filename, or the path as a whole
// has a trailing space.
func Path(relPath string) bool {
	if relPath == "" || relPath == "." {
		return false
	}
	if TrailingSpace(relPath) {
		return true
	}
	parts := strings.Split(relPath, "/")
	for _, p := range parts {
		if p == "" {
			continue
		}
		if Filename(p) {
			return true
		}
	}
	return false
}
