package repomgr

import "os"

// removeIndexFile deletes a repo's index file; a missing file is not
// an error, since reclaim may run more than once for the same
// tombstone if a prior cleanup pass crashed partway through.
func removeIndexFile(path string) {
	os.Remove(path)
}
