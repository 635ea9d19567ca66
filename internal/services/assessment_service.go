package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hireloop/takehome/internal/github"
	"github.com/hireloop/takehome/internal/models"
)

// AssessmentService manages assessment definitions and their seed repository
// rows.
type AssessmentService struct {
	db *gorm.DB
}

// NewAssessmentService constructs an AssessmentService.
func NewAssessmentService(db *gorm.DB) (*AssessmentService, error) {
	if db == nil {
		return nil, errors.New("assessment service: db is required")
	}
	return &AssessmentService{db: db}, nil
}

// CreateAssessmentInput carries the fields for a new assessment.
type CreateAssessmentInput struct {
	Title               string `json:"title" validate:"required,min=1,max=200"`
	Description         string `json:"description,omitempty"`
	Instructions        string `json:"instructions,omitempty"`
	SeedRepoURL         string `json:"seed_repo_url" validate:"required"`
	StartWithinHours    int    `json:"start_within_hours" validate:"required,min=1"`
	CompleteWithinHours int    `json:"complete_within_hours" validate:"required,min=1"`
}

// UpdateAssessmentInput carries partial updates; nil fields are untouched.
type UpdateAssessmentInput struct {
	Title               *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description         *string `json:"description,omitempty"`
	Instructions        *string `json:"instructions,omitempty"`
	SeedRepoURL         *string `json:"seed_repo_url,omitempty"`
	StartWithinHours    *int    `json:"start_within_hours,omitempty" validate:"omitempty,min=1"`
	CompleteWithinHours *int    `json:"complete_within_hours,omitempty" validate:"omitempty,min=1"`
}

// Create validates the seed URL and stores the assessment together with its
// seed repository row.
func (s *AssessmentService) Create(ctx context.Context, input CreateAssessmentInput) (*models.Assessment, error) {
	if _, err := github.ParseRepoFullName(input.SeedRepoURL); err != nil {
		return nil, fmt.Errorf("%w: seed repo URL: %s", ErrInvalidSeedRepoURL, input.SeedRepoURL)
	}

	assessment := models.Assessment{
		Title:               input.Title,
		Description:         input.Description,
		Instructions:        input.Instructions,
		SeedRepoURL:         input.SeedRepoURL,
		StartWithinHours:    input.StartWithinHours,
		CompleteWithinHours: input.CompleteWithinHours,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&assessment).Error; err != nil {
			return fmt.Errorf("assessment service: create assessment: %w", err)
		}
		seed := models.SeedRepo{
			AssessmentID:  assessment.ID,
			DefaultBranch: "main",
		}
		if err := tx.Create(&seed).Error; err != nil {
			return fmt.Errorf("assessment service: create seed repo: %w", err)
		}
		assessment.SeedRepo = &seed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

// Get returns one assessment with its seed repository preloaded.
func (s *AssessmentService) Get(ctx context.Context, id string) (*models.Assessment, error) {
	var assessment models.Assessment
	err := s.db.WithContext(ctx).Preload("SeedRepo").First(&assessment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("assessment service: load assessment: %w", err)
	}
	return &assessment, nil
}

// List returns assessments, newest first. When includeArchived is false only
// active assessments are returned.
func (s *AssessmentService) List(ctx context.Context, includeArchived bool) ([]models.Assessment, error) {
	query := s.db.WithContext(ctx).Preload("SeedRepo").Order("created_at DESC")
	if !includeArchived {
		query = query.Where("archived = ?", false)
	}

	var assessments []models.Assessment
	if err := query.Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("assessment service: list assessments: %w", err)
	}
	return assessments, nil
}

// Update applies a partial update. Changing the seed URL updates the seed row
// and clears its cached SHA; existing candidate repos keep their pins.
func (s *AssessmentService) Update(ctx context.Context, id string, input UpdateAssessmentInput) (*models.Assessment, error) {
	assessment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Instructions != nil {
		updates["instructions"] = *input.Instructions
	}
	if input.StartWithinHours != nil {
		updates["start_within_hours"] = *input.StartWithinHours
	}
	if input.CompleteWithinHours != nil {
		updates["complete_within_hours"] = *input.CompleteWithinHours
	}
	if input.SeedRepoURL != nil {
		if _, err := github.ParseRepoFullName(*input.SeedRepoURL); err != nil {
			return nil, fmt.Errorf("%w: seed repo URL: %s", ErrInvalidSeedRepoURL, *input.SeedRepoURL)
		}
		updates["seed_repo_url"] = *input.SeedRepoURL
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(assessment).Updates(updates).Error; err != nil {
				return fmt.Errorf("assessment service: update assessment: %w", err)
			}
		}
		if input.SeedRepoURL != nil {
			// A new seed invalidates the cached head; candidate repos keep
			// their own pins.
			if err := tx.Model(&models.SeedRepo{}).
				Where("assessment_id = ?", assessment.ID).
				Update("latest_main_sha", "").Error; err != nil {
				return fmt.Errorf("assessment service: update seed repo: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// SetArchived flips the archived flag. Archived assessments accept no new
// invites but keep their history readable.
func (s *AssessmentService) SetArchived(ctx context.Context, id string, archived bool) (*models.Assessment, error) {
	assessment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(assessment).Update("archived", archived).Error; err != nil {
		return nil, fmt.Errorf("assessment service: set archived: %w", err)
	}
	assessment.Archived = archived
	return assessment, nil
}

// Delete removes the assessment, its seed repository row, and every invite
// with all rows the invites own.
func (s *AssessmentService) Delete(ctx context.Context, id string) error {
	assessment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invites []models.AssessmentInvite
		if err := tx.Where("assessment_id = ?", assessment.ID).Find(&invites).Error; err != nil {
			return fmt.Errorf("assessment service: list invites: %w", err)
		}
		for _, invite := range invites {
			if err := deleteInviteTx(tx, invite.ID); err != nil {
				return err
			}
		}
		if err := tx.Where("assessment_id = ?", assessment.ID).Delete(&models.SeedRepo{}).Error; err != nil {
			return fmt.Errorf("assessment service: delete seed repo: %w", err)
		}
		if err := tx.Delete(&models.Assessment{}, "id = ?", assessment.ID).Error; err != nil {
			return fmt.Errorf("assessment service: delete assessment: %w", err)
		}
		return nil
	})
}
