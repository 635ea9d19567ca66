package models

// SeedRepo caches what we last observed about an assessment's seed repository.
// The cached SHA is opportunistic only; the pinned SHA on each candidate repo
// is authoritative per invite.
type SeedRepo struct {
	BaseModel

	AssessmentID  string `gorm:"type:uuid;not null;uniqueIndex" json:"assessment_id"`
	DefaultBranch string `gorm:"not null" json:"default_branch"`
	LatestMainSHA string `json:"latest_main_sha,omitempty"`
}
