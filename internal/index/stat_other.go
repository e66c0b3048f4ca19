//go:build !unix

package index

import (
	"os"
	"time"
)

// statCtime falls back to ModTime on platforms without a Unix stat
// struct; change-time tracking is a best-effort optimization, not a
// correctness requirement.
func statCtime(info os.FileInfo) time.Time {
	return info.ModTime()
}
