package models

import "time"

// FollowUpEmail records a follow-up message sent to a candidate after review.
type FollowUpEmail struct {
	BaseModel

	InviteID        string    `gorm:"type:uuid;not null;index" json:"invite_id"`
	SentAt          time.Time `gorm:"not null" json:"sent_at"`
	TemplateSubject string    `gorm:"not null" json:"template_subject"`
	TemplateBody    string    `gorm:"not null" json:"template_body"`
}
