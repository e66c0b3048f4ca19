package repomgr

import (
	"go.uber.org/zap"

	"seafrepo/internal/objectstore"
)

// Start runs the spec §4.G startup sequence: create directories, drain
// deleted-repo tombstones, load every live repo's head branch/commit
// and encryption/property state, register it in the ordered map, and
// pass every interrupted merge (repo id, branch) to resumeMerge.
func (m *Manager) Start(watcher AutoSyncController, resumeMerge func(repoID, branch string)) error {
	if err := m.ensureDirs(); err != nil {
		return err
	}
	if err := m.CleanupDeleted(); err != nil {
		return err
	}

	var repos []Repo
	if err := m.repos.List(&repos); err != nil {
		return err
	}

	for i := range repos {
		r := &repos[i]
		if err := m.loadRepo(r, watcher); err != nil {
			m.logger.Warn("dropping corrupted repo at startup", zap.String("repo_id", r.ID), zap.Error(err))
			continue
		}
		m.addRepo(r)
	}

	var pending []MergeInfo
	if err := m.merges.List(&pending); err != nil {
		return err
	}
	for _, mi := range pending {
		if mi.InMerge && resumeMerge != nil {
			resumeMerge(mi.RepoID, mi.Branch)
		}
	}

	return nil
}

// loadRepo populates name/desc/encryption snapshot from the head
// commit, and every recognized property. A repo whose branch or
// commit is missing is reported as corrupted rather than registered
// (spec §4.G startup step 3).
func (m *Manager) loadRepo(r *Repo, watcher AutoSyncController) error {
	head, err := m.branches.Get(r.ID, r.HeadBranch)
	if err != nil {
		head, err = m.branches.Get(r.ID, "master")
		if err != nil {
			return err
		}
		r.HeadBranch = "master"
	}
	r.HeadCommitID = head.CommitID

	if head.CommitID != "" {
		cm, err := m.commitManager(r.ID)
		if err != nil {
			return err
		}
		c, err := cm.Load(head.CommitID)
		if err != nil {
			return err
		}
		r.Name = c.RepoName
		r.Desc = c.RepoDesc
		r.Encrypted = c.Encryption.Encrypted
		r.EncVersion = c.Encryption.EncVersion
		r.Magic = c.Encryption.Magic
	}

	if r.Encrypted {
		if _, ok := m.LoadCrypto(r.ID); !ok {
			var pw RepoPasswd
			if err := m.passwds.Get(r.ID, &pw); err == nil {
				// Regenerate keys from the cached password (upgrade path
				// or a lost RepoKeys row). r is not registered yet, so
				// the keys are derived and stored here directly.
				crypt := objectstore.DeriveKey(r.ID, pw.Passwd, r.EncVersion, m.kdfIters)
				_ = m.keys.Upsert(&RepoKeys{RepoID: r.ID, Key: crypt.KeyHex(), IV: crypt.IVHex()})
			}
		}
	}

	var props []RepoProperty
	if err := m.props.ListByPrefix(r.ID+"/", &props); err == nil {
		for _, p := range props {
			switch p.Key {
			case PropAutoSync:
				r.AutoSync = p.Value == "true"
			case PropWorktree:
				r.Worktree = p.Value
			case PropRelayID:
				r.RelayID = p.Value
			case PropNetBrowsable:
				r.NetBrowsable = p.Value == "true"
			case PropEmail:
				r.Email = p.Value
			case PropRelayAddr:
				r.RelayAddr = p.Value
			case PropRelayPort:
				r.RelayPort = p.Value
			case PropToken:
				r.Token = p.Value
			}
		}
	}

	if r.AutoSync && r.Worktree != "" && watcher != nil {
		watcher.Subscribe(r.ID, r.Worktree)
	}

	return nil
}
