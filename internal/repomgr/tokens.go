package repomgr

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"seafrepo/internal/errors"
)

// VerifyLanToken checks token against the repo's persistent lan token,
// falling back to DefaultRepoToken when no row exists yet (spec §6
// "Tokens" — SUPPLEMENTED FEATURES).
func (m *Manager) VerifyLanToken(repoID, token string) bool {
	var t RepoLanToken
	if err := m.lanToks.Get(repoID, &t); err != nil {
		return token == DefaultRepoToken
	}
	return token == t.Token
}

// SetLanToken persists a repo's lan token.
func (m *Manager) SetLanToken(repoID, token string) error {
	return m.lanToks.Upsert(&RepoLanToken{RepoID: repoID, Token: token})
}

// GenerateTmpToken creates and persists a one-shot token for
// (repoID, peerID), mirroring the original's generate_tmp_token.
func (m *Manager) GenerateTmpToken(repoID, peerID string) (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating tmp token: %w", err)
	}
	token := hex.EncodeToString(buf)

	t := &RepoTmpToken{RepoID: repoID, PeerID: peerID, Token: token, Timestamp: time.Now()}
	if err := m.tmpToks.Upsert(t); err != nil {
		return "", fmt.Errorf("persisting tmp token: %w", err)
	}
	return token, nil
}

// VerifyTmpToken checks and deletes a one-shot token in a single call:
// a tmp token is verified at most once (spec §6 "one-shot").
func (m *Manager) VerifyTmpToken(repoID, peerID, token string) error {
	var t RepoTmpToken
	id := (&RepoTmpToken{RepoID: repoID, PeerID: peerID}).GetID()
	if err := m.tmpToks.Get(id, &t); err != nil {
		return errors.NotFound("no tmp token issued for this peer")
	}

	// Delete before comparing so a mismatched attempt can't be retried
	// either, matching the original's use-once-then-drop semantics.
	_ = m.tmpToks.Delete(id)

	if t.Token != token {
		return errors.PasswordError("tmp token mismatch")
	}
	return nil
}
