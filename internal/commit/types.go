// Package commit implements the commit DAG manager (spec §4.B):
// immutable nodes with 0-2 parents, keyed by SHA-1 over canonical
// form. Grounded on the teacher's content-addressed storage idiom
// (internal/objectstore) plus the original seaf-daemon's SeafCommit
// (repo-mgr.c collect_commit / seaf_repo_get_commits).
package commit

import "time"

// EncryptionSnapshot mirrors the encryption parameters a repo had at
// commit time (spec §3 Commit: "repo_name/desc/encryption snapshot").
type EncryptionSnapshot struct {
	Encrypted  bool   `json:"encrypted"`
	EncVersion int    `json:"enc_version,omitempty"`
	Magic      string `json:"magic,omitempty"`
}

// Commit is an immutable node in the commit DAG. Once written it is
// never mutated; it is referenced only by ID.
type Commit struct {
	ID               string             `json:"id"`
	RepoID           string             `json:"repo_id"`
	RootTreeID       string             `json:"root_tree_id"`
	Creator          string             `json:"creator"`
	CreatorSessionID string             `json:"creator_session_id"`
	Description      string             `json:"description"`
	CreatedAt        time.Time          `json:"created_at"`
	ParentID         string             `json:"parent_id,omitempty"`
	SecondParentID   string             `json:"second_parent_id,omitempty"`
	RepoName         string             `json:"repo_name"`
	RepoDesc         string             `json:"repo_desc"`
	Encryption       EncryptionSnapshot `json:"encryption"`
}

// IsMergeCommit reports whether the commit has two parents.
func (c *Commit) IsMergeCommit() bool {
	return c.SecondParentID != ""
}

// Parents returns the non-empty parent ids, in (first, second) order.
func (c *Commit) Parents() []string {
	var out []string
	if c.ParentID != "" {
		out = append(out, c.ParentID)
	}
	if c.SecondParentID != "" {
		out = append(out, c.SecondParentID)
	}
	return out
}
