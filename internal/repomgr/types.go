// Package repomgr implements the repo manager (spec §4.G): repository
// lifecycle, the metadata tables of spec §6, encryption key
// management, and checkout task tracking. Grounded on the teacher's
// LocalWorkspace as the top-level owning object that wires together
// storage, an object store, and a watcher, generalized from a single
// workspace to a registry of many repos each with its own object
// store namespace, index file, and branch set.
package repomgr

import "time"

// Repo is the in-memory and persisted view of one repository (spec §3
// Repository). Encryption and password fields are populated lazily by
// SetRepoPasswd/loadRepo, never eagerly serialized in the clear except
// where the spec explicitly allows caching the password.
type Repo struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Desc           string    `json:"desc"`
	Worktree       string    `json:"worktree"`
	HeadBranch     string    `json:"head_branch"`
	HeadCommitID   string    `json:"head_commit_id"`
	Encrypted      bool      `json:"encrypted"`
	EncVersion     int       `json:"enc_version"`
	Magic          string    `json:"magic"`
	AutoSync       bool      `json:"auto_sync"`
	NetBrowsable   bool      `json:"net_browsable"`
	RelayID        string    `json:"relay_id"`
	RelayAddr      string    `json:"relay_addr"`
	RelayPort      string    `json:"relay_port"`
	Email          string    `json:"email"`
	Token          string    `json:"token"`
	CreatedAt      time.Time `json:"created_at"`
	DeletePending  bool      `json:"-"`
	corrupted      bool
}

func (r *Repo) GetID() string { return r.ID }

// DeletedRepo is the two-phase-delete tombstone (spec §4.G
// mark_repo_deleted / cleanup sweep).
type DeletedRepo struct {
	RepoID string `json:"repo_id"`
}

func (d *DeletedRepo) GetID() string { return d.RepoID }

// RepoPasswd caches a repo's password in clear, matching spec §3's
// "optional password (cached in clear in the local metadata DB)".
type RepoPasswd struct {
	RepoID string `json:"repo_id"`
	Passwd string `json:"passwd"`
}

func (p *RepoPasswd) GetID() string { return p.RepoID }

// RepoKeys caches the derived key/IV pair, hex-encoded, so a restart
// doesn't need the password re-entered to decrypt (spec §4.A).
type RepoKeys struct {
	RepoID string `json:"repo_id"`
	Key    string `json:"key"`
	IV     string `json:"iv"`
}

func (k *RepoKeys) GetID() string { return k.RepoID }

// RepoProperty is one row of the RepoProperty(repo_id, key, value)
// table (spec §6). GetID namespaces by repo_id+key so Upsert gives the
// right "set" semantics and ListByPrefix(repo_id) fetches every
// property for one repo.
type RepoProperty struct {
	RepoID string `json:"repo_id"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func (p *RepoProperty) GetID() string { return p.RepoID + "/" + p.Key }

// Recognized property keys (spec §6).
const (
	PropAutoSync     = "auto-sync"
	PropRelayID      = "relay-id"
	PropNetBrowsable = "net-browsable"
	PropEmail        = "email"
	PropToken        = "token"
	PropWorktree     = "worktree"
	PropRelayAddr    = "relay-addr"
	PropRelayPort    = "relay-port"
)

// RepoLanToken is a persistent per-repo shared secret (spec §6).
type RepoLanToken struct {
	RepoID string `json:"repo_id"`
	Token  string `json:"token"`
}

func (t *RepoLanToken) GetID() string { return t.RepoID }

// DefaultRepoToken is accepted when no lan token row exists yet (spec
// §6 "Tokens").
const DefaultRepoToken = "default-repo-token"

// RepoTmpToken is a one-shot (repo_id, peer_id) token, deleted on its
// first verification attempt whether or not the token matches.
type RepoTmpToken struct {
	RepoID    string    `json:"repo_id"`
	PeerID    string    `json:"peer_id"`
	Token     string    `json:"token"`
	Timestamp time.Time `json:"timestamp"`
}

func (t *RepoTmpToken) GetID() string { return t.RepoID + "/" + t.PeerID }

// MergeInfo is the crash-recovery row of spec §3 (set when a merge
// starts, cleared once its commit lands or the merge aborts).
type MergeInfo struct {
	RepoID  string `json:"repo_id"`
	InMerge bool   `json:"in_merge"`
	Branch  string `json:"branch"`
}

func (m *MergeInfo) GetID() string { return m.RepoID }

// CheckoutTask is a transient async-checkout progress record (spec
// §3), never persisted to the metadata DB.
type CheckoutTask struct {
	RepoID       string
	Worktree     string
	TotalFiles   int
	FinishedFiles int
	Success      bool
	Done         chan struct{}
}
