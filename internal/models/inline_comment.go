package models

// ReviewInlineComment anchors reviewer commentary to a file (and optionally a
// line) of the candidate's diff.
type ReviewInlineComment struct {
	BaseModel

	InviteID    string `gorm:"type:uuid;not null;index" json:"invite_id"`
	FilePath    string `gorm:"not null" json:"file_path"`
	Line        *int   `json:"line,omitempty"`
	Message     string `gorm:"not null" json:"message"`
	AuthorEmail string `gorm:"not null" json:"author_email"`
	AuthorName  string `json:"author_name,omitempty"`
}
