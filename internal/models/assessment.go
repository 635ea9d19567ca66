package models

// Assessment describes a take-home exercise built around a seed repository.
// Deleting an assessment cascades through its invites to every row they own.
type Assessment struct {
	BaseModel

	Title               string `gorm:"not null" json:"title"`
	Description         string `json:"description"`
	Instructions        string `json:"instructions"`
	SeedRepoURL         string `gorm:"not null" json:"seed_repo_url"`
	StartWithinHours    int    `gorm:"not null" json:"start_within_hours"`
	CompleteWithinHours int    `gorm:"not null" json:"complete_within_hours"`
	Archived            bool   `gorm:"not null;default:false" json:"archived"`

	SeedRepo *SeedRepo          `gorm:"constraint:OnDelete:CASCADE" json:"seed_repo,omitempty"`
	Invites  []AssessmentInvite `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
