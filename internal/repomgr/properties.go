package repomgr

import (
	"fmt"
	"os"

	"seafrepo/internal/errors"
	"seafrepo/internal/notify"
)

// PeerRoleChecker is the CCNet peer-discovery contract set_repo_property's
// relay-id validation drives (spec §4.G: "must refer to a peer whose
// role list contains 'MyRelay'"). Peer discovery itself is an external
// collaborator (spec.md:12) this engine never implements; peers is
// injected the same way watcher is, so callers that do have a peer
// table can wire it in and callers that don't (this repo's CLI/daemon,
// which has no CCNet client) can pass nil and skip the role check.
type PeerRoleChecker interface {
	HasRole(peerID, role string) bool
}

// SetRepoProperty upserts RepoProperty(repo_id, key, value) and
// applies the side effects spec §4.G names for recognized keys.
// watcher is the auto-sync collaborator (internal/watch), passed in
// as an interface so repomgr does not import internal/watch. peers is
// the PeerRoleChecker consulted for relay-id validation; nil skips
// that check. A rejected relay id is not persisted.
func (m *Manager) SetRepoProperty(id, key, value string, watcher AutoSyncController, peers PeerRoleChecker) error {
	r, err := m.GetRepo(id)
	if err != nil {
		return err
	}

	if key == PropRelayID {
		if len(value) != 40 {
			return errors.ValidationError("relay id must be 40 characters", nil)
		}
		if peers != nil && !peers.HasRole(value, "MyRelay") {
			return errors.ValidationError("relay id does not refer to a peer with role MyRelay", nil)
		}
	}

	if err := m.props.Upsert(&RepoProperty{RepoID: id, Key: key, Value: value}); err != nil {
		return fmt.Errorf("setting property %s: %w", key, err)
	}

	lock := m.repoLock(id)
	lock.Lock()
	defer lock.Unlock()

	switch key {
	case PropAutoSync:
		r.AutoSync = value == "true"
		if watcher != nil {
			if r.AutoSync {
				if r.Worktree != "" {
					watcher.Subscribe(r.ID, r.Worktree)
				}
			} else {
				watcher.Unsubscribe(r.ID)
			}
		}
	case PropNetBrowsable:
		r.NetBrowsable = value == "true"
	case PropRelayID:
		r.RelayID = value
	case PropEmail:
		r.Email = value
	case PropRelayAddr:
		r.RelayAddr = value
	case PropRelayPort:
		r.RelayPort = value
	case PropToken:
		r.Token = value
	}
	return nil
}

// AutoSyncController is the worktree-watcher contract set_repo_property
// drives (spec §4.G: "toggles worktree-watcher subscription").
type AutoSyncController interface {
	Subscribe(repoID, worktree string)
	Unsubscribe(repoID string)
}

// GetRepoProperty reads back a single property, or "" if unset.
func (m *Manager) GetRepoProperty(id, key string) (string, error) {
	var p RepoProperty
	pid := (&RepoProperty{RepoID: id, Key: key}).GetID()
	if err := m.props.Get(pid, &p); err != nil {
		return "", nil
	}
	return p.Value, nil
}

// SetRepoWorktree validates path exists, persists it as the "worktree"
// property, starts the watcher if auto-sync is already enabled, and
// publishes repo.setwktree (spec.md:174 "published on worktree
// validation state changes").
func (m *Manager) SetRepoWorktree(id, path string, watcher AutoSyncController, bus notify.Bus) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return errors.ValidationError(fmt.Sprintf("worktree path %s does not exist", path), nil)
	}

	r, err := m.GetRepo(id)
	if err != nil {
		return err
	}

	if err := m.props.Upsert(&RepoProperty{RepoID: id, Key: PropWorktree, Value: path}); err != nil {
		return fmt.Errorf("persisting worktree property: %w", err)
	}

	lock := m.repoLock(id)
	lock.Lock()
	r.Worktree = path
	autoSync := r.AutoSync
	lock.Unlock()

	if autoSync && watcher != nil {
		watcher.Subscribe(id, path)
	}
	if bus != nil {
		bus.Publish(notify.Event{Name: notify.RepoSetWorktree, RepoID: id, Data: map[string]string{"path": path}})
	}
	return nil
}

// UnsetRepoWorktree clears the "worktree" property, stops any active
// watch subscription, and publishes repo.unsetwktree (spec.md:174).
func (m *Manager) UnsetRepoWorktree(id string, watcher AutoSyncController, bus notify.Bus) error {
	r, err := m.GetRepo(id)
	if err != nil {
		return err
	}

	if err := m.props.Delete((&RepoProperty{RepoID: id, Key: PropWorktree}).GetID()); err != nil {
		return fmt.Errorf("clearing worktree property: %w", err)
	}

	lock := m.repoLock(id)
	lock.Lock()
	path := r.Worktree
	r.Worktree = ""
	lock.Unlock()

	if watcher != nil {
		watcher.Unsubscribe(id)
	}
	if bus != nil {
		bus.Publish(notify.Event{Name: notify.RepoUnsetWorktree, RepoID: id, Data: map[string]string{"path": path}})
	}
	return nil
}
