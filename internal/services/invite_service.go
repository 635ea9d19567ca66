package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hireloop/takehome/internal/models"
	"github.com/hireloop/takehome/pkg/crypto"
	"github.com/hireloop/takehome/pkg/logger"
	"github.com/hireloop/takehome/pkg/mail"
)

const (
	defaultSlugBytes     = 16
	slugCollisionRetries = 5
)

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteClock injects a custom clock primarily for testing.
func WithInviteClock(clock func() time.Time) InviteOption {
	return func(s *InviteService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSlugLength adjusts the random slug length in bytes.
func WithSlugLength(size int) InviteOption {
	return func(s *InviteService) {
		if size > 0 {
			s.slugLength = size
		}
	}
}

// WithPublicBaseURL sets the base URL used to build candidate start links.
func WithPublicBaseURL(base string) InviteOption {
	return func(s *InviteService) {
		s.publicBaseURL = strings.TrimRight(base, "/")
	}
}

// InviteService manages invite creation, listing, deletion, and the invite
// email. Candidates are deduplicated by lowercased email; slugs are random,
// unguessable, and unique.
type InviteService struct {
	db            *gorm.DB
	mailer        mail.Mailer
	slugLength    int
	publicBaseURL string
	now           func() time.Time
	log           *zap.Logger
}

// NewInviteService constructs an InviteService.
func NewInviteService(db *gorm.DB, mailer mail.Mailer, opts ...InviteOption) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}

	service := &InviteService{
		db:         db,
		mailer:     mailer,
		slugLength: defaultSlugBytes,
		now:        time.Now,
		log:        logger.WithModule("invites"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CreateInviteInput carries the fields for a new invite.
type CreateInviteInput struct {
	AssessmentID   string `json:"assessment_id" validate:"required,uuid"`
	CandidateEmail string `json:"candidate_email" validate:"required,email"`
	CandidateName  string `json:"candidate_name,omitempty"`
}

// CreateInvite creates a pending invite for the assessment, reusing an
// existing candidate row when the email is already known. The invite email is
// best effort: delivery failure never fails the create.
func (s *InviteService) CreateInvite(ctx context.Context, input CreateInviteInput) (*models.AssessmentInvite, error) {
	var assessment models.Assessment
	if err := s.db.WithContext(ctx).First(&assessment, "id = ?", input.AssessmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("invite service: load assessment: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(input.CandidateEmail))
	now := s.now().UTC()
	startDeadline := StartDeadline(now, assessment.StartWithinHours)

	var invite *models.AssessmentInvite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate, err := s.findOrCreateCandidate(tx, email, input.CandidateName)
		if err != nil {
			return err
		}

		slug, err := s.uniqueSlug(tx)
		if err != nil {
			return err
		}

		invite = &models.AssessmentInvite{
			AssessmentID:    assessment.ID,
			CandidateID:     candidate.ID,
			Status:          models.InviteStatusPending,
			StartDeadlineAt: &startDeadline,
			StartURLSlug:    slug,
		}
		if err := tx.Create(invite).Error; err != nil {
			return fmt.Errorf("invite service: create invite: %w", err)
		}

		invite.Candidate = candidate
		invite.Assessment = &assessment
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.db.WithContext(ctx), invite.ID, "invite.created", map[string]any{
		"assessment_id": assessment.ID,
		"candidate":     email,
	})

	s.sendInviteEmail(ctx, &assessment, invite)
	return invite, nil
}

// List returns invites for an assessment, newest first, with candidate, repo
// and submission rows preloaded for the admin view.
func (s *InviteService) List(ctx context.Context, assessmentID string) ([]models.AssessmentInvite, error) {
	var invites []models.AssessmentInvite
	err := s.db.WithContext(ctx).
		Preload("Candidate").
		Preload("CandidateRepo").
		Preload("Submission").
		Where("assessment_id = ?", assessmentID).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("invite service: list invites: %w", err)
	}
	return invites, nil
}

// Get returns one invite by id with candidate, repo and submission preloaded.
func (s *InviteService) Get(ctx context.Context, id string) (*models.AssessmentInvite, error) {
	var invite models.AssessmentInvite
	err := s.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Assessment").
		Preload("CandidateRepo").
		Preload("Submission").
		First(&invite, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("invite service: load invite: %w", err)
	}
	return &invite, nil
}

// GetBySlug resolves a candidate-facing slug to its invite without side
// effects.
func (s *InviteService) GetBySlug(ctx context.Context, slug string) (*models.AssessmentInvite, error) {
	var invite models.AssessmentInvite
	err := s.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Assessment").
		Where("start_url_slug = ?", slug).
		First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("invite service: find invite by slug: %w", err)
	}
	return &invite, nil
}

// Delete removes an invite and everything hanging off it: access tokens, the
// candidate repo row, the submission, review and inline comments, and
// follow-up history. Audit events are detached, not deleted.
func (s *InviteService) Delete(ctx context.Context, id string) error {
	invite, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteInviteTx(tx, invite.ID)
	})
	if err != nil {
		return err
	}

	recordAudit(s.db.WithContext(ctx), "", "invite.deleted", map[string]any{
		"invite_id": invite.ID,
		"slug":      invite.StartURLSlug,
	})
	return nil
}

// ResendInviteEmail re-sends the invitation email for a pending invite.
func (s *InviteService) ResendInviteEmail(ctx context.Context, id string) error {
	invite, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if invite.Assessment == nil {
		return ErrAssessmentNotFound
	}
	return s.deliverInviteEmail(ctx, invite.Assessment, invite)
}

// StartURL builds the candidate-facing start link for a slug.
func (s *InviteService) StartURL(slug string) string {
	if s.publicBaseURL == "" {
		return "/start/" + slug
	}
	return s.publicBaseURL + "/start/" + slug
}

// deleteInviteTx removes every row owned by the invite inside tx. Shared with
// assessment deletion, which fans out across all invites.
func deleteInviteTx(tx *gorm.DB, inviteID string) error {
	var repo models.CandidateRepo
	err := tx.Where("invite_id = ?", inviteID).First(&repo).Error
	switch {
	case err == nil:
		if err := tx.Where("candidate_repo_id = ?", repo.ID).Delete(&models.RepoAccessToken{}).Error; err != nil {
			return fmt.Errorf("invite service: delete tokens: %w", err)
		}
		if err := tx.Delete(&repo).Error; err != nil {
			return fmt.Errorf("invite service: delete candidate repo: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Never provisioned; nothing to clean up.
	default:
		return fmt.Errorf("invite service: load candidate repo: %w", err)
	}

	if err := tx.Where("invite_id = ?", inviteID).Delete(&models.Submission{}).Error; err != nil {
		return fmt.Errorf("invite service: delete submission: %w", err)
	}
	if err := tx.Where("invite_id = ?", inviteID).Delete(&models.ReviewComment{}).Error; err != nil {
		return fmt.Errorf("invite service: delete review comments: %w", err)
	}
	if err := tx.Where("invite_id = ?", inviteID).Delete(&models.ReviewInlineComment{}).Error; err != nil {
		return fmt.Errorf("invite service: delete inline comments: %w", err)
	}
	if err := tx.Where("invite_id = ?", inviteID).Delete(&models.FollowUpEmail{}).Error; err != nil {
		return fmt.Errorf("invite service: delete follow-ups: %w", err)
	}
	if err := tx.Model(&models.AuditEvent{}).
		Where("invite_id = ?", inviteID).
		Update("invite_id", nil).Error; err != nil {
		return fmt.Errorf("invite service: detach audit events: %w", err)
	}
	if err := tx.Delete(&models.AssessmentInvite{}, "id = ?", inviteID).Error; err != nil {
		return fmt.Errorf("invite service: delete invite: %w", err)
	}
	return nil
}

func (s *InviteService) findOrCreateCandidate(tx *gorm.DB, email, name string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := tx.Where("email = ?", email).First(&candidate).Error
	if err == nil {
		if name != "" && candidate.FullName == "" {
			if err := tx.Model(&candidate).Update("full_name", name).Error; err != nil {
				return nil, fmt.Errorf("invite service: update candidate name: %w", err)
			}
			candidate.FullName = name
		}
		return &candidate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invite service: find candidate: %w", err)
	}

	candidate = models.Candidate{Email: email, FullName: name}
	if err := tx.Create(&candidate).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Concurrent create with the same email; read it back.
			if err := tx.Where("email = ?", email).First(&candidate).Error; err != nil {
				return nil, fmt.Errorf("invite service: reload candidate: %w", err)
			}
			return &candidate, nil
		}
		return nil, fmt.Errorf("invite service: create candidate: %w", err)
	}
	return &candidate, nil
}

func (s *InviteService) uniqueSlug(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < slugCollisionRetries; attempt++ {
		raw, err := crypto.GenerateToken(s.slugLength)
		if err != nil {
			return "", fmt.Errorf("invite service: generate slug: %w", err)
		}
		slug := strings.ToLower(raw)

		var count int64
		if err := tx.Model(&models.AssessmentInvite{}).
			Where("start_url_slug = ?", slug).
			Count(&count).Error; err != nil {
			return "", fmt.Errorf("invite service: check slug: %w", err)
		}
		if count == 0 {
			return slug, nil
		}
	}
	return "", errors.New("invite service: could not generate a unique slug")
}

func (s *InviteService) sendInviteEmail(ctx context.Context, assessment *models.Assessment, invite *models.AssessmentInvite) {
	if err := s.deliverInviteEmail(ctx, assessment, invite); err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			s.log.Debug("smtp disabled; invite email skipped", zap.String("invite_id", invite.ID))
			return
		}
		s.log.Warn("invite email delivery failed",
			zap.String("invite_id", invite.ID),
			zap.Error(err),
		)
	}
}

func (s *InviteService) deliverInviteEmail(ctx context.Context, assessment *models.Assessment, invite *models.AssessmentInvite) error {
	if s.mailer == nil || invite.Candidate == nil {
		return nil
	}

	deadline := "as soon as possible"
	if invite.StartDeadlineAt != nil {
		deadline = invite.StartDeadlineAt.UTC().Format(time.RFC1123)
	}

	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYou have been invited to the take-home assessment %q.\r\n\r\n"+
			"Start here: %s\r\nPlease start before %s. Once started you will have %d hours to submit.\r\n\r\n"+
			"Good luck!\r\n",
		candidateGreeting(invite.Candidate),
		assessment.Title,
		s.StartURL(invite.StartURLSlug),
		deadline,
		assessment.CompleteWithinHours,
	)

	return s.mailer.Send(ctx, mail.Message{
		To:      []string{invite.Candidate.Email},
		Subject: fmt.Sprintf("Take-home assessment: %s", assessment.Title),
		Body:    body,
	})
}

func candidateGreeting(candidate *models.Candidate) string {
	if candidate.FullName != "" {
		return candidate.FullName
	}
	return candidate.Email
}
