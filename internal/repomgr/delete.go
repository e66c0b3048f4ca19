package repomgr

import (
	"fmt"

	"seafrepo/internal/notify"
)

// MarkRepoDeleted tombstones repo id: it stops resolving through
// GetRepo immediately, but its rows and index file are only reclaimed
// by CleanupDeleted (normally run at startup), so a crash mid-delete
// leaves a resumable tombstone instead of a half-deleted repo (spec
// §4.G / §3 "two-phase delete"). bus may be nil; when set,
// repo-deleted is published once the tombstone is durable, the point
// at which the repo is deleted from every caller's perspective.
func (m *Manager) MarkRepoDeleted(id string, bus notify.Bus) error {
	m.mu.Lock()
	r, ok := m.live[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("repo %s not found", id)
	}

	if err := m.deleted.Upsert(&DeletedRepo{RepoID: id}); err != nil {
		return fmt.Errorf("tombstoning repo %s: %w", id, err)
	}

	m.mu.Lock()
	r.DeletePending = true
	m.mu.Unlock()

	if bus != nil {
		bus.Publish(notify.Event{Name: notify.RepoDeleted, RepoID: id})
	}
	return nil
}

// CleanupDeleted drains the DeletedRepo tombstone table: for every
// pending id it deletes all DB rows, the index file, and unrefs its
// branches, then removes the tombstone (spec §4.G startup step 2).
func (m *Manager) CleanupDeleted() error {
	var pending []DeletedRepo
	if err := m.deleted.List(&pending); err != nil {
		return fmt.Errorf("listing deleted repos: %w", err)
	}

	for _, d := range pending {
		if err := m.reclaim(d.RepoID); err != nil {
			return fmt.Errorf("reclaiming repo %s: %w", d.RepoID, err)
		}
	}
	return nil
}

func (m *Manager) reclaim(id string) error {
	if err := m.branches.DeleteAll(id); err != nil {
		return err
	}
	if err := m.props.DeleteByPrefix(id + "/"); err != nil {
		return err
	}
	if err := m.tmpToks.DeleteByPrefix(id + "/"); err != nil {
		return err
	}
	_ = m.lanToks.Delete(id)
	_ = m.passwds.Delete(id)
	_ = m.keys.Delete(id)
	_ = m.merges.Delete(id)
	_ = m.repos.Delete(id)
	removeIndexFile(m.indexPath(id))

	m.mu.Lock()
	delete(m.live, id)
	delete(m.locks, id)
	delete(m.stores, id)
	m.removeFromOrderLocked(id)
	m.mu.Unlock()

	return m.deleted.Delete(id)
}

func (m *Manager) removeFromOrderLocked(id string) {
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
