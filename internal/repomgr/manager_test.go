package repomgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	seafDir, err := os.MkdirTemp("", "repomgr-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(seafDir) })

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	m := NewManager(db, logger, Options{SeafDir: seafDir, ChunkSize: 1 << 20, CacheSize: 64, KDFIters: 4})
	require.NoError(t, m.Start(nil, nil))
	return m
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func newWorktree(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "repomgr-worktree")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}
