package repomgr

import (
	"fmt"

	"seafrepo/internal/errors"
	"seafrepo/internal/objectstore"
)

// SetRepoPasswd derives the key/IV pair, persists RepoPasswd and
// RepoKeys, and marks the in-memory Repo encrypted with the derived
// magic (spec §4.G, §3 "optional password cached in clear"). The
// password itself is kept only in the RepoPasswd row, not on the Repo.
func (m *Manager) SetRepoPasswd(id, passwd string, encVersion int) error {
	r, err := m.GetRepo(id)
	if err != nil {
		return err
	}

	crypt := objectstore.DeriveKey(id, passwd, encVersion, m.kdfIters)

	if err := m.passwds.Upsert(&RepoPasswd{RepoID: id, Passwd: passwd}); err != nil {
		return fmt.Errorf("caching password: %w", err)
	}
	if err := m.keys.Upsert(&RepoKeys{RepoID: id, Key: crypt.KeyHex(), IV: crypt.IVHex()}); err != nil {
		return fmt.Errorf("caching keys: %w", err)
	}

	lock := m.repoLock(id)
	lock.Lock()
	defer lock.Unlock()
	r.Encrypted = true
	r.EncVersion = encVersion
	r.Magic = crypt.Magic()
	return nil
}

// GenerateMagic recomputes and stores the magic fingerprint used by
// VerifyPasswd, without touching the cached password.
func (m *Manager) GenerateMagic(id, passwd string, encVersion int) (string, error) {
	r, err := m.GetRepo(id)
	if err != nil {
		return "", err
	}
	crypt := objectstore.DeriveKey(id, passwd, encVersion, m.kdfIters)

	lock := m.repoLock(id)
	lock.Lock()
	r.Magic = crypt.Magic()
	lock.Unlock()
	return r.Magic, nil
}

// VerifyPasswd reports whether passwd derives the repo's stored magic
// (spec §7 property "verify_passwd(p) == 0 iff magic == hex(KDF(...))");
// on success it caches the derived key/IV so decryption doesn't need
// the password again this session. Wrong passwords never cache keys.
func (m *Manager) VerifyPasswd(id, passwd string) (objectstore.Crypto, error) {
	r, err := m.GetRepo(id)
	if err != nil {
		return objectstore.Crypto{}, err
	}
	if !r.Encrypted {
		return objectstore.Crypto{}, errors.ValidationError("repo is not encrypted", nil)
	}

	crypt := objectstore.DeriveKey(id, passwd, r.EncVersion, m.kdfIters)
	if crypt.Magic() != r.Magic {
		return objectstore.Crypto{}, errors.PasswordError("incorrect password")
	}

	if err := m.keys.Upsert(&RepoKeys{RepoID: id, Key: crypt.KeyHex(), IV: crypt.IVHex()}); err != nil {
		return objectstore.Crypto{}, fmt.Errorf("caching keys: %w", err)
	}
	return crypt, nil
}

// LoadCrypto returns the cached key/IV for an encrypted repo, or a
// zero Crypto and false if the repo is not encrypted or has no cached
// keys (the caller must fall back to VerifyPasswd).
func (m *Manager) LoadCrypto(id string) (objectstore.Crypto, bool) {
	var k RepoKeys
	if err := m.keys.Get(id, &k); err != nil {
		return objectstore.Crypto{}, false
	}
	crypt, err := objectstore.CryptoFromHex(k.Key, k.IV)
	if err != nil {
		return objectstore.Crypto{}, false
	}
	return crypt, true
}
