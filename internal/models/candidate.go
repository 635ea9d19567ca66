package models

// Candidate is identified by a unique, lowercased email address and may hold
// invites across many assessments.
type Candidate struct {
	BaseModel

	Email    string `gorm:"not null;uniqueIndex" json:"email"`
	FullName string `json:"full_name,omitempty"`

	Invites []AssessmentInvite `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
