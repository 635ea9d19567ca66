package models

// ReviewComment is a threaded message between reviewer and candidate on an
// invite. AuthorType is "admin" or "candidate".
type ReviewComment struct {
	BaseModel

	InviteID    string `gorm:"type:uuid;not null;index" json:"invite_id"`
	AuthorType  string `gorm:"not null" json:"author_type"`
	AuthorEmail string `gorm:"not null" json:"author_email"`
	AuthorName  string `json:"author_name,omitempty"`
	Message     string `gorm:"not null" json:"message"`
}
