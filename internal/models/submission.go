package models

import "time"

// Submission snapshots an invite at submission time. FinalSHA currently
// captures the pinned seed commit; fetching the candidate's true head at
// submission is a known follow-up.
type Submission struct {
	BaseModel

	InviteID    string    `gorm:"type:uuid;not null;uniqueIndex" json:"invite_id"`
	FinalSHA    string    `json:"final_sha"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
}
