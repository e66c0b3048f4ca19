//go:build !windows

package unpack

// DefaultLockChecker is a no-op off Windows: spec §4.F scopes the
// held-open-file scan to Windows, where a sharing violation is the
// normal way another process signals "don't touch this file". Unix
// allows unlinking/rewriting a file another process has open, so
// there's nothing to check.
var DefaultLockChecker LockChecker = noLockChecker{}

type noLockChecker struct{}

func (noLockChecker) Locked(root string, paths []string) ([]string, error) {
	return nil, nil
}
