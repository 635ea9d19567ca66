package models

import "time"

// RepoAccessToken is an ephemeral clone credential. Only the SHA-256 digest is
// persisted; the plaintext is returned to the caller exactly once. Tokens are
// revoked by timestamp, never deleted by the lifecycle paths.
type RepoAccessToken struct {
	BaseModel

	CandidateRepoID string     `gorm:"type:uuid;not null;index" json:"candidate_repo_id"`
	TokenHash       string     `gorm:"not null" json:"-"`
	ExpiresAt       time.Time  `gorm:"not null;index" json:"expires_at"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
}

// Valid reports whether the token is usable at the given instant.
func (t *RepoAccessToken) Valid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
