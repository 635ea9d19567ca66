package database

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/hireloop/takehome/internal/models"
)

// FollowUpTemplateKey is the settings row holding the follow-up email template.
const FollowUpTemplateKey = "followup_template"

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Assessment{},
		&models.SeedRepo{},
		&models.Candidate{},
		&models.AssessmentInvite{},
		&models.CandidateRepo{},
		&models.RepoAccessToken{},
		&models.Submission{},
		&models.ReviewComment{},
		&models.ReviewInlineComment{},
		&models.FollowUpEmail{},
		&models.Setting{},
		&models.AuditEvent{},
	)
}

// SeedData populates the default follow-up email template if absent.
func SeedData(db *gorm.DB) error {
	value, err := json.Marshal(map[string]string{
		"subject": "Follow-Up Interview Invitation",
		"body":    "We'd like to schedule a follow-up interview. Please reply with your availability.",
	})
	if err != nil {
		return err
	}

	template := models.Setting{
		Key:   FollowUpTemplateKey,
		Value: string(value),
	}
	return db.Where(models.Setting{Key: template.Key}).Attrs(template).FirstOrCreate(&models.Setting{}).Error
}
