package repomgr

import (
	"fmt"
	"os"
	"time"

	"seafrepo/internal/commit"
	"seafrepo/internal/errors"
	"seafrepo/internal/index"
	"seafrepo/internal/merge"
	"seafrepo/internal/notify"
	"seafrepo/internal/objectstore"
	"seafrepo/internal/unpack"
	"seafrepo/internal/worktreediff"
)

// hashAndStore returns an index.HashFunc that both content-addresses
// and persists a file's blob, so staging and object-store writing
// happen in the same pass (spec §4.D step 4 / §4.A PutBlob).
func hashAndStore(store *objectstore.Store, crypt *objectstore.Crypto) index.HashFunc {
	return func(fullPath string) (string, error) {
		data, err := os.ReadFile(fullPath)
		if err != nil {
			return "", err
		}
		return store.PutBlob(data, crypt)
	}
}

func (m *Manager) loadIndex(id string) (*index.State, error) {
	return index.ReadIndexFrom(m.indexPath(id))
}

func (m *Manager) saveIndex(id string, state *index.State) error {
	return index.UpdateIndex(state, m.indexPath(id))
}

// StagePaths runs the staging algorithm (spec §4.D) for pathPrefix
// (usually "" for the whole worktree) and persists the updated index.
func (m *Manager) StagePaths(repoID, pathPrefix string) error {
	if !IsRepoIDValid(repoID) {
		return errors.InputError("invalid repo id")
	}
	r, err := m.GetRepo(repoID)
	if err != nil {
		return err
	}
	if r.Worktree == "" {
		return errors.ValidationError("repo has no worktree set", nil)
	}

	lock := m.repoLock(repoID)
	lock.Lock()
	defer lock.Unlock()

	store, err := m.objectStore(repoID)
	if err != nil {
		return err
	}
	state, err := m.loadIndex(repoID)
	if err != nil {
		return err
	}

	crypt := m.cryptoFor(r)
	if err := index.Stage(state, r.Worktree, pathPrefix, hashAndStore(store, crypt)); err != nil {
		return fmt.Errorf("staging %s: %w", pathPrefix, err)
	}
	index.RemoveMarkedCacheEntries(state)

	return m.saveIndex(repoID, state)
}

// Status returns the worktree/index/head three-way change summary
// (spec §4.H), without mutating anything.
func (m *Manager) Status(repoID string) ([]worktreediff.Change, error) {
	r, err := m.GetRepo(repoID)
	if err != nil {
		return nil, err
	}
	store, err := m.objectStore(repoID)
	if err != nil {
		return nil, err
	}
	state, err := m.loadIndex(repoID)
	if err != nil {
		return nil, err
	}

	changes, err := worktreediff.CollectIndexChanges(store, state, headTreeOf(m, repoID, r))
	if err != nil {
		return nil, err
	}
	if r.Worktree != "" {
		crypt := m.cryptoFor(r)
		wtChanges, err := worktreediff.CollectWorktreeChanges(state, r.Worktree, hashAndStore(store, crypt))
		if err != nil {
			return nil, err
		}
		untracked, err := worktreediff.CollectUntracked(state, r.Worktree)
		if err != nil {
			return nil, err
		}
		changes = append(changes, wtChanges...)
		changes = append(changes, untracked...)
	}
	return worktreediff.ResolveRenames(worktreediff.ResolveEmptyDirs(changes)), nil
}

func headTreeOf(m *Manager, repoID string, r *Repo) string {
	if r.HeadCommitID == "" {
		return ""
	}
	cm, err := m.commitManager(repoID)
	if err != nil {
		return ""
	}
	c, err := cm.Load(r.HeadCommitID)
	if err != nil {
		return ""
	}
	return c.RootTreeID
}

// Commit implements index_commit (spec §4.G / §4.B): builds the cache
// tree from the current index, creates the commit with head as its
// parent, and CAS-advances the head branch to it. An empty description
// is synthesized from the staged changes (SUPPLEMENTED FEATURE). bus
// may be nil; when set, repo-committed is published after the branch
// pointer advances (spec.md:174 "emitted after successful commit").
func (m *Manager) Commit(repoID, creator, creatorSessionID, description string, bus notify.Bus) (*commit.Commit, error) {
	r, err := m.GetRepo(repoID)
	if err != nil {
		return nil, err
	}

	lock := m.repoLock(repoID)
	lock.Lock()
	defer lock.Unlock()

	store, err := m.objectStore(repoID)
	if err != nil {
		return nil, err
	}
	state, err := m.loadIndex(repoID)
	if err != nil {
		return nil, err
	}
	if index.IsUnmerged(state) {
		return nil, errors.Conflict("index has unresolved merge conflicts")
	}

	if description == "" {
		changes, err := worktreediff.CollectIndexChanges(store, state, headTreeOf(m, repoID, r))
		if err == nil {
			description = GenCommitDescription(changes)
		}
	}

	rootTreeID, err := buildTree(store, state)
	if err != nil {
		return nil, fmt.Errorf("building tree: %w", err)
	}

	cm := commit.NewManager(store)
	c, err := cm.Create(commit.Commit{
		RepoID:           repoID,
		RootTreeID:       rootTreeID,
		Creator:          creator,
		CreatorSessionID: creatorSessionID,
		Description:      description,
		CreatedAt:        time.Now(),
		ParentID:         r.HeadCommitID,
		RepoName:         r.Name,
		RepoDesc:         r.Desc,
		Encryption: commit.EncryptionSnapshot{
			Encrypted:  r.Encrypted,
			EncVersion: r.EncVersion,
			Magic:      r.Magic,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := m.branches.SetHead(repoID, r.HeadBranch, r.HeadCommitID, c.ID); err != nil {
		return nil, err
	}
	r.HeadCommitID = c.ID

	if bus != nil {
		bus.Publish(notify.Event{Name: notify.RepoCommitted, RepoID: repoID, Data: map[string]string{"commit_id": c.ID}})
	}
	return c, nil
}

// Checkout applies commitID's tree to the worktree, preserving local
// changes where safe and reporting Conflict paths otherwise (spec's
// checkout path via TwowayMerge).
func (m *Manager) Checkout(repoID, commitID string) error {
	r, err := m.GetRepo(repoID)
	if err != nil {
		return err
	}
	if r.Worktree == "" {
		return errors.ValidationError("repo has no worktree set", nil)
	}

	store, err := m.objectStore(repoID)
	if err != nil {
		return err
	}
	cm, err := m.commitManager(repoID)
	if err != nil {
		return err
	}
	target, err := cm.Load(commitID)
	if err != nil {
		return err
	}

	lock := m.repoLock(repoID)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.loadIndex(repoID)
	if err != nil {
		return err
	}

	headTree := headTreeOf(m, repoID, r)
	plan, err := unpack.TwowayMerge(store, state, headTree, target.RootTreeID)
	if err != nil {
		return err
	}

	crypt := m.cryptoFor(r)
	if err := unpack.UpdateWorktree(store, crypt, r.Worktree, plan, nil, unpack.DefaultLockChecker); err != nil {
		return err
	}

	if err := rebuildIndexFromTree(store, state, target.RootTreeID); err != nil {
		return err
	}
	if err := m.saveIndex(repoID, state); err != nil {
		return err
	}

	r.HeadCommitID = commitID
	return nil
}

// Reset takes ownership of target: after this call the caller must not
// reuse it, matching the original's implicit-ownership-transfer
// contract made explicit here (REDESIGN). Unlike Checkout, Reset uses
// OnewayMerge and never preserves local changes.
func (m *Manager) Reset(repoID string, target *commit.Commit) error {
	r, err := m.GetRepo(repoID)
	if err != nil {
		return err
	}

	store, err := m.objectStore(repoID)
	if err != nil {
		return err
	}

	lock := m.repoLock(repoID)
	lock.Lock()
	defer lock.Unlock()

	headTree := headTreeOf(m, repoID, r)
	plan, err := unpack.OnewayMerge(store, headTree, target.RootTreeID)
	if err != nil {
		return err
	}

	if r.Worktree != "" {
		crypt := m.cryptoFor(r)
		if err := unpack.UpdateWorktree(store, crypt, r.Worktree, plan, nil, unpack.DefaultLockChecker); err != nil {
			return err
		}
	}

	state := index.NewState()
	if err := rebuildIndexFromTree(store, state, target.RootTreeID); err != nil {
		return err
	}
	if err := m.saveIndex(repoID, state); err != nil {
		return err
	}

	if err := m.branches.SetHead(repoID, r.HeadBranch, r.HeadCommitID, target.ID); err != nil {
		return err
	}
	r.HeadCommitID = target.ID
	return nil
}

// Revert implements spec §4.I's revert operation (grounded on
// seaf_repo_revert): unlike Reset, which moves head backward in place,
// Revert applies target's tree to the worktree/index via OnewayMerge
// but then creates a brand-new commit on top of the current head with
// target's root tree, so history gains a record of the revert instead
// of losing everything after target. bus may be nil; a successful
// revert publishes repo-committed like any other Commit.
func (m *Manager) Revert(repoID string, target *commit.Commit, bus notify.Bus) (*commit.Commit, error) {
	r, err := m.GetRepo(repoID)
	if err != nil {
		return nil, err
	}
	if r.HeadCommitID == "" {
		return nil, errors.ValidationError("repo has no head commit to revert from", nil)
	}

	store, err := m.objectStore(repoID)
	if err != nil {
		return nil, err
	}
	cm, err := m.commitManager(repoID)
	if err != nil {
		return nil, err
	}
	head, err := cm.Load(r.HeadCommitID)
	if err != nil {
		return nil, err
	}

	lock := m.repoLock(repoID)
	lock.Lock()
	defer lock.Unlock()

	headTree := headTreeOf(m, repoID, r)
	plan, err := unpack.OnewayMerge(store, headTree, target.RootTreeID)
	if err != nil {
		return nil, err
	}
	if r.Worktree != "" {
		crypt := m.cryptoFor(r)
		if err := unpack.UpdateWorktree(store, crypt, r.Worktree, plan, nil, unpack.DefaultLockChecker); err != nil {
			return nil, err
		}
	}

	state := index.NewState()
	if err := rebuildIndexFromTree(store, state, target.RootTreeID); err != nil {
		return nil, err
	}
	if err := m.saveIndex(repoID, state); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Reverted repo to status at %s.", target.CreatedAt.Format("2006-01-02 15:04:05"))
	c, err := cm.Create(commit.Commit{
		RepoID:      repoID,
		RootTreeID:  target.RootTreeID,
		Creator:     head.Creator,
		Description: description,
		CreatedAt:   time.Now(),
		ParentID:    head.ID,
		RepoName:    r.Name,
		RepoDesc:    r.Desc,
		Encryption: commit.EncryptionSnapshot{
			Encrypted:  r.Encrypted,
			EncVersion: r.EncVersion,
			Magic:      r.Magic,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := m.branches.SetHead(repoID, r.HeadBranch, r.HeadCommitID, c.ID); err != nil {
		return nil, err
	}
	r.HeadCommitID = c.ID

	if bus != nil {
		bus.Publish(notify.Event{Name: notify.RepoCommitted, RepoID: repoID, Data: map[string]string{"commit_id": c.ID}})
	}
	return c, nil
}

// MergeRemoteBranch implements spec §4.I's merge_branches operation
// against remoteCommitID, persisting MergeInfo across the write and
// creating the merge commit itself once mergeTrees succeeds.
func (m *Manager) MergeRemoteBranch(repoID, remoteBranchName, creator, remoteCommitID string) (*merge.Outcome, error) {
	r, err := m.GetRepo(repoID)
	if err != nil {
		return nil, err
	}

	store, err := m.objectStore(repoID)
	if err != nil {
		return nil, err
	}
	cm, err := m.commitManager(repoID)
	if err != nil {
		return nil, err
	}
	if r.HeadCommitID == "" {
		return nil, errors.ValidationError("repo has no head commit to merge into", nil)
	}
	head, err := cm.Load(r.HeadCommitID)
	if err != nil {
		return nil, err
	}
	remote, err := cm.Load(remoteCommitID)
	if err != nil {
		return nil, err
	}

	lock := m.repoLock(repoID)
	lock.Lock()
	defer lock.Unlock()

	state, err := m.loadIndex(repoID)
	if err != nil {
		return nil, err
	}

	headTree := headTreeOf(m, repoID, r)

	outcome, err := merge.MergeBranches(store, cm, state, repoID, remoteBranchName, head, remote, m)
	if err != nil {
		return nil, err
	}

	switch {
	case outcome.FastForward:
		if r.Worktree != "" {
			plan, err := unpack.TwowayMerge(store, state, headTree, remote.RootTreeID)
			if err != nil {
				return nil, err
			}
			if err := unpack.UpdateWorktree(store, m.cryptoFor(r), r.Worktree, plan, nil, unpack.DefaultLockChecker); err != nil {
				return nil, err
			}
		}
		if err := m.branches.SetHead(repoID, r.HeadBranch, r.HeadCommitID, outcome.NewHeadID); err != nil {
			return nil, err
		}
		r.HeadCommitID = outcome.NewHeadID
		if err := rebuildIndexFromTree(store, state, remote.RootTreeID); err != nil {
			return nil, err
		}
		if err := m.saveIndex(repoID, state); err != nil {
			return nil, err
		}
	case outcome.NoOp:
		// remote is already an ancestor of head; nothing to do.
	case outcome.RealMerge:
		if r.Worktree != "" {
			plan, err := unpack.OnewayMerge(store, headTree, outcome.MergedTreeID)
			if err != nil {
				return nil, err
			}
			if err := unpack.UpdateWorktree(store, m.cryptoFor(r), r.Worktree, plan, nil, unpack.DefaultLockChecker); err != nil {
				return nil, err
			}
		}

		c, err := cm.Create(commit.Commit{
			RepoID:         repoID,
			RootTreeID:     outcome.MergedTreeID,
			Creator:        creator,
			Description:    fmt.Sprintf("Merge branch %q", remoteBranchName),
			CreatedAt:      time.Now(),
			ParentID:       head.ID,
			SecondParentID: remote.ID,
			RepoName:       r.Name,
			RepoDesc:       r.Desc,
		})
		if err != nil {
			return nil, err
		}
		if err := m.branches.SetHead(repoID, r.HeadBranch, r.HeadCommitID, c.ID); err != nil {
			return nil, err
		}
		r.HeadCommitID = c.ID
		outcome.NewHeadID = c.ID

		if err := rebuildIndexFromTree(store, state, outcome.MergedTreeID); err != nil {
			return nil, err
		}
		if err := m.saveIndex(repoID, state); err != nil {
			return nil, err
		}
		if err := merge.FinishMerge(m, repoID); err != nil {
			return nil, err
		}
	}

	return outcome, nil
}
