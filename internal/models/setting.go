package models

// Setting is a key/value row for small pieces of mutable configuration, such
// as the follow-up email template.
type Setting struct {
	BaseModel

	Key   string `gorm:"not null;uniqueIndex" json:"key"`
	Value string `gorm:"not null" json:"value"`
}
