package repomgr

import (
	"fmt"

	"seafrepo/internal/index"
	"seafrepo/internal/objectstore"
	"seafrepo/internal/unpack"
)

// AddCheckoutTask schedules an async checkout of repo id's head commit
// into worktree, invoking done once it finishes (spec §4.G). The task
// record is inserted on start and removed the moment done fires,
// matching the transient lifecycle of spec §3's Checkout Task.
func (m *Manager) AddCheckoutTask(id, worktree string, done func(success bool, err error)) error {
	r, err := m.GetRepo(id)
	if err != nil {
		return err
	}
	if r.HeadCommitID == "" {
		return fmt.Errorf("repo %s has no head commit to check out", id)
	}

	store, err := m.objectStore(id)
	if err != nil {
		return err
	}
	cm, err := m.commitManager(id)
	if err != nil {
		return err
	}
	head, err := cm.Load(r.HeadCommitID)
	if err != nil {
		return fmt.Errorf("loading head commit: %w", err)
	}

	task := &CheckoutTask{RepoID: id, Worktree: worktree, Done: make(chan struct{})}

	m.mu.Lock()
	m.checkoutTasks[id] = task
	m.mu.Unlock()

	go func() {
		lock := m.repoLock(id)
		lock.Lock()
		defer lock.Unlock()

		plan, err := unpack.OnewayMerge(store, "", head.RootTreeID)
		if err == nil {
			task.TotalFiles = len(plan)
			// This is always the repo's first checkout into worktree
			// (initial_checkout in the original), so the lock scan is
			// skipped the same way the original exempted it: nothing
			// else could already have the target files open.
			err = unpack.UpdateWorktree(store, m.cryptoFor(r), worktree, plan, func(finished, total int) {
				task.FinishedFiles = finished
			}, nil)
		}
		if err == nil {
			state := index.NewState()
			for _, e := range plan {
				if e.Action == unpack.WTRemove {
					continue
				}
				state.Entries = append(state.Entries, index.CacheEntry{Path: e.Path, Mode: index.ModeRegular, BlobID: e.ID})
			}
			err = index.UpdateIndex(state, m.indexPath(id))
		}

		task.Success = err == nil
		if task.Success {
			r.Worktree = worktree
		}

		m.mu.Lock()
		delete(m.checkoutTasks, id)
		m.mu.Unlock()

		close(task.Done)
		if done != nil {
			done(task.Success, err)
		}
	}()

	return nil
}

// cryptoFor returns r's decryption key if it is encrypted and its keys
// are cached, else nil (plaintext repo).
func (m *Manager) cryptoFor(r *Repo) *objectstore.Crypto {
	if !r.Encrypted {
		return nil
	}
	if crypt, ok := m.LoadCrypto(r.ID); ok {
		return &crypt
	}
	return nil
}
