package models

// CandidateRepo records the hosted repository provisioned for one invite.
// PinnedMainSHA is the immutable diff baseline: the seed commit the candidate
// repository was forked from.
type CandidateRepo struct {
	BaseModel

	InviteID      string `gorm:"type:uuid;not null;uniqueIndex" json:"invite_id"`
	RepoFullName  string `json:"repo_full_name"`
	GitProvider   string `gorm:"not null" json:"git_provider"`
	PinnedMainSHA string `json:"pinned_main_sha"`
	Archived      bool   `gorm:"not null;default:false" json:"archived"`

	AccessTokens []RepoAccessToken `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
