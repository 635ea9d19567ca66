package models

import "time"

// InviteStatus enumerates the invite lifecycle states.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusStarted   InviteStatus = "started"
	InviteStatusSubmitted InviteStatus = "submitted"
	InviteStatusExpired   InviteStatus = "expired"
)

// Terminal reports whether no further transitions are possible from s.
func (s InviteStatus) Terminal() bool {
	return s == InviteStatusSubmitted || s == InviteStatusExpired
}

// AssessmentInvite is a candidate's single attempt at one assessment. The
// unguessable StartURLSlug is the sole authorization for candidate-facing
// endpoints. Status transitions are monotonic: pending→started→submitted,
// with pending→expired and started→expired as terminal side paths.
type AssessmentInvite struct {
	BaseModel

	AssessmentID       string       `gorm:"type:uuid;not null;index" json:"assessment_id"`
	CandidateID        string       `gorm:"type:uuid;not null;index" json:"candidate_id"`
	Status             InviteStatus `gorm:"not null;default:pending" json:"status"`
	StartDeadlineAt    *time.Time   `json:"start_deadline_at,omitempty"`
	CompleteDeadlineAt *time.Time   `json:"complete_deadline_at,omitempty"`
	StartURLSlug       string       `gorm:"uniqueIndex" json:"start_url_slug"`
	StartedAt          *time.Time   `json:"started_at,omitempty"`
	SubmittedAt        *time.Time   `json:"submitted_at,omitempty"`

	Assessment    *Assessment    `json:"assessment,omitempty"`
	Candidate     *Candidate     `json:"candidate,omitempty"`
	CandidateRepo *CandidateRepo `gorm:"foreignKey:InviteID;constraint:OnDelete:CASCADE" json:"candidate_repo,omitempty"`
	Submission    *Submission    `gorm:"foreignKey:InviteID;constraint:OnDelete:CASCADE" json:"submission,omitempty"`
}
