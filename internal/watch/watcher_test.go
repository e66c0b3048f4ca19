package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubscribeFiresOnChangeOnFileCreate(t *testing.T) {
	dir, err := os.MkdirTemp("", "watch-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	changed := make(chan string, 8)
	w := New(zap.NewNop(), func(repoID string) { changed <- repoID })

	w.Subscribe("repo1", dir)
	defer w.Unsubscribe("repo1")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hi"), 0644))

	select {
	case repoID := <-changed:
		require.Equal(t, "repo1", repoID)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	dir, err := os.MkdirTemp("", "watch-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	changed := make(chan string, 8)
	w := New(zap.NewNop(), func(repoID string) { changed <- repoID })

	w.Subscribe("repo1", dir)
	w.Unsubscribe("repo1")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hi"), 0644))

	select {
	case <-changed:
		t.Fatal("received notification after unsubscribe")
	case <-time.After(500 * time.Millisecond):
	}
}
