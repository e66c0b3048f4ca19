// Package daemon wires together the pieces a running repo engine
// instance needs (badger DB, repo manager, worktree watcher, event
// bus) the way the teacher's main.go wires content store + workspace +
// intent/stream stores, generalized so both the long-running daemon
// and the one-shot CLI share a single bootstrap path.
package daemon

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"seafrepo/internal/config"
	"seafrepo/internal/logging"
	"seafrepo/internal/merge"
	"seafrepo/internal/notify"
	"seafrepo/internal/repomgr"
	"seafrepo/internal/watch"
)

// Instance bundles everything a caller needs after bootstrap: the repo
// manager for mutating operations, the event bus for observers, and a
// Close to release the database.
type Instance struct {
	Config  *config.Config
	Logger  *logging.Logger
	DB      *badger.DB
	Manager *repomgr.Manager
	Watcher *watch.Watcher
	Events  *notify.InProcess
}

func (in *Instance) Close() error {
	return in.DB.Close()
}

// Bootstrap loads configPath (or the environment default when empty),
// opens the metadata database under cfg.SeafDir, and runs the repo
// manager's startup sequence (spec §4.G / §4.I). A merge interrupted
// by a previous crash is reported from its MergeInfo row as a warning
// log line; it is not re-run.
func Bootstrap(configPath string) (*Instance, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		cfg = config.Default("./seaf-data")
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	dbOpts := badger.DefaultOptions(cfg.SeafDir + "/meta").WithLogger(nil)
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("opening metadata database: %w", err)
	}

	mgr := repomgr.NewManager(db, logger.Logger, repomgr.Options{
		SeafDir:   cfg.SeafDir,
		ChunkSize: cfg.ChunkSize,
		CacheSize: cfg.ObjectCacheSize,
		KDFIters:  cfg.KDFIterations,
	})

	events := notify.NewInProcess()
	// onChange fires on every worktree file mutation; that's a much
	// higher-frequency signal than repo.setwktree (published once, by
	// repomgr.SetRepoWorktree, when the worktree binding itself
	// changes), so it only logs here rather than publishing on the
	// bus. A sync scheduler consuming per-file mutations is an
	// external collaborator (spec.md:12).
	watcher := watch.New(logger.Logger, func(repoID string) {
		logger.Debug("auto-sync worktree change detected", zap.String("repo_id", repoID))
	})

	resumeMerge := func(repoID, branchName string) {
		logger.Warn("resuming interrupted merge", zap.String("repo_id", repoID), zap.String("branch", branchName))
	}

	if err := mgr.Start(watcher, resumeMerge); err != nil {
		db.Close()
		return nil, fmt.Errorf("starting repo manager: %w", err)
	}

	return &Instance{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Manager: mgr,
		Watcher: watcher,
		Events:  events,
	}, nil
}

// Ensure merge.Persister stays satisfied by *repomgr.Manager even as
// the interfaces evolve independently in their own packages.
var _ merge.Persister = (*repomgr.Manager)(nil)
