package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"seafrepo/internal/daemon"
)

// main runs the repo engine as a long-lived process: bootstrap opens
// the metadata database, restores every repo's head/branch/property
// state, logs any merge a previous crash interrupted (without re-running
// it), and starts worktree watchers for auto-sync repos. Wire-protocol serving (spec Non-goals: "top-level
// CLI/RPC plumbing is external to this engine") is not this binary's
// job; cmd/seafrepo drives the same engine for one-shot operations.
func main() {
	configPath := os.Getenv("SEAFREPO_CONFIG")

	in, err := daemon.Bootstrap(configPath)
	if err != nil {
		log.Fatal("failed to bootstrap repo engine:", err)
	}
	defer in.Close()

	in.Logger.Info("repo engine started", zap.String("seaf_dir", in.Config.SeafDir))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	in.Logger.Info("shutting down", zap.String("signal", sig.String()))
}
