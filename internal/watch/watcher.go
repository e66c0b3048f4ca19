// Package watch is the worktree watcher collaborator repomgr drives
// through the AutoSyncController interface when a repo's "auto-sync"
// property is set. Grounded on the teacher's change.AutoTracker
// (fsnotify.Watcher, a per-tracker ignoreDirs set, a watchLoop
// goroutine draining Events/Errors), generalized from a single
// tracked-files map to a per-repo callback fired on any worktree
// mutation.
package watch

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"seafrepo/internal/ignore"
)

// Watcher owns one fsnotify.Watcher per subscribed repo and invokes
// onChange whenever a non-ignored path inside its worktree is created,
// written, removed, or renamed.
type Watcher struct {
	logger   *zap.Logger
	onChange func(repoID string)

	mu    sync.Mutex
	repos map[string]*repoWatch
}

type repoWatch struct {
	worktree string
	fsw      *fsnotify.Watcher
	stop     chan struct{}
}

func New(logger *zap.Logger, onChange func(repoID string)) *Watcher {
	return &Watcher{
		logger:   logger,
		onChange: onChange,
		repos:    make(map[string]*repoWatch),
	}
}

// Subscribe starts watching worktree for repoID, recursively adding
// every non-ignored directory (spec §4.G auto-sync toggles worktree-
// watcher subscription).
func (w *Watcher) Subscribe(repoID, worktree string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.repos[repoID]; ok {
		existing.fsw.Close()
		close(existing.stop)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("creating worktree watcher", zap.String("repo_id", repoID), zap.Error(err))
		return
	}

	rw := &repoWatch{worktree: worktree, fsw: fsw, stop: make(chan struct{})}
	w.repos[repoID] = rw

	if err := addTree(fsw, worktree); err != nil {
		w.logger.Error("adding worktree to watcher", zap.String("repo_id", repoID), zap.Error(err))
	}

	go w.loop(repoID, rw)
}

// Unsubscribe stops watching repoID's worktree, a no-op if it was not
// subscribed.
func (w *Watcher) Unsubscribe(repoID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rw, ok := w.repos[repoID]
	if !ok {
		return
	}
	delete(w.repos, repoID)
	rw.fsw.Close()
	close(rw.stop)
}

func (w *Watcher) loop(repoID string, rw *repoWatch) {
	for {
		select {
		case <-rw.stop:
			return
		case event, ok := <-rw.fsw.Events:
			if !ok {
				return
			}
			rel, err := filepath.Rel(rw.worktree, event.Name)
			if err != nil || ignore.Path(filepath.ToSlash(rel)) {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					rw.fsw.Add(event.Name)
				}
			}
			if w.onChange != nil {
				w.onChange(repoID)
			}
		case err, ok := <-rw.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("worktree watcher error", zap.String("repo_id", repoID), zap.Error(err))
		}
	}
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel != "." && ignore.Path(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
