package services

import (
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hireloop/takehome/internal/models"
	"github.com/hireloop/takehome/pkg/logger"
)

// recordAudit writes a lifecycle audit event. Best effort: failures are
// logged and never surfaced to the primary operation.
func recordAudit(db *gorm.DB, inviteID, eventType string, payload map[string]any) {
	event := models.AuditEvent{
		EventType: eventType,
	}
	if inviteID != "" {
		event.InviteID = &inviteID
	}
	if len(payload) > 0 {
		if encoded, err := json.Marshal(payload); err == nil {
			event.Payload = string(encoded)
		}
	}

	if err := db.Create(&event).Error; err != nil {
		logger.WithModule("audit").Warn("record audit event failed",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
