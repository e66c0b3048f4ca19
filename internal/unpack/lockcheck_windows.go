//go:build windows

package unpack

import (
	"os"
	"path/filepath"
)

// DefaultLockChecker is the LockChecker every repomgr call site wires
// into UpdateWorktree by default. On Windows it actually probes for
// open handles; elsewhere (lockcheck_other.go) it's a no-op, since
// spec §4.F scopes the check to Windows the way the original's
// files_locked_on_windows did.
var DefaultLockChecker LockChecker = windowsLockChecker{}

type windowsLockChecker struct{}

// Locked opens each candidate file for read-write access; on Windows
// a sharing violation there means another process has the
// file open, the same signal the original's checkout path polled for
// before applying its unpack-trees result.
func (windowsLockChecker) Locked(root string, paths []string) ([]string, error) {
	var locked []string
	for _, p := range paths {
		full := filepath.Join(root, p)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}
		f, err := os.OpenFile(full, os.O_RDWR, 0)
		if err != nil {
			locked = append(locked, p)
			continue
		}
		f.Close()
	}
	return locked, nil
}
