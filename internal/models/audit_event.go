package models

// AuditEvent is a best-effort record of a lifecycle transition. InviteID is
// nullable so events survive invite deletion.
type AuditEvent struct {
	BaseModel

	InviteID  *string `gorm:"type:uuid;index" json:"invite_id,omitempty"`
	EventType string  `gorm:"not null" json:"event_type"`
	Payload   string  `json:"payload,omitempty"`
}
