package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hireloop/takehome/internal/github"
	"github.com/hireloop/takehome/internal/models"
	"github.com/hireloop/takehome/pkg/logger"
	"github.com/hireloop/takehome/pkg/metrics"
)

const defaultRepoTokenTTL = 24 * time.Hour

// LifecycleOption customises LifecycleService behaviour.
type LifecycleOption func(*LifecycleService)

// WithLifecycleClock injects a custom clock primarily for testing.
func WithLifecycleClock(clock func() time.Time) LifecycleOption {
	return func(s *LifecycleService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithDefaultTokenTTL overrides the fallback token lifetime used when an
// invite has no complete deadline yet.
func WithDefaultTokenTTL(d time.Duration) LifecycleOption {
	return func(s *LifecycleService) {
		if d > 0 {
			s.tokenTTL = d
		}
	}
}

// LifecycleService drives an invite through pending → started → submitted,
// with expiry detected lazily on access. It orchestrates the deadline clock,
// the repository provisioner, and the token issuer, and persists each
// transition exactly once: transitions are guarded by a per-slug lock plus a
// compare-and-swap on status, so a lost race never double-provisions.
type LifecycleService struct {
	db          *gorm.DB
	provisioner RepoProvisioner
	tokens      *TokenService
	tokenTTL    time.Duration
	now         func() time.Time
	log         *zap.Logger
	slugLocks   *keyedMutex
}

// NewLifecycleService constructs a LifecycleService with the provided dependencies.
func NewLifecycleService(db *gorm.DB, provisioner RepoProvisioner, tokens *TokenService, opts ...LifecycleOption) (*LifecycleService, error) {
	if db == nil {
		return nil, errors.New("lifecycle service: db is required")
	}
	if provisioner == nil {
		return nil, errors.New("lifecycle service: provisioner is required")
	}
	if tokens == nil {
		return nil, errors.New("lifecycle service: token service is required")
	}

	service := &LifecycleService{
		db:          db,
		provisioner: provisioner,
		tokens:      tokens,
		tokenTTL:    defaultRepoTokenTTL,
		now:         time.Now,
		log:         logger.WithModule("lifecycle"),
		slugLocks:   newKeyedMutex(),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CloneInfo carries clone coordinates for a candidate repository. Token is
// plaintext and present only when issuance succeeded; it is never persisted.
type CloneInfo struct {
	CloneURL       string     `json:"clone_url"`
	Branch         string     `json:"branch"`
	Token          string     `json:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}

// StartResult is returned from a successful StartAssessment.
type StartResult struct {
	Invite *models.AssessmentInvite `json:"invite"`
	Repo   *models.CandidateRepo    `json:"repo"`
	Git    *CloneInfo               `json:"git"`
}

// SubmitResult is returned from a successful SubmitAssessment.
type SubmitResult struct {
	FinalSHA    string    `json:"final_sha"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// StartInfo is the read-only view of the candidate start page.
type StartInfo struct {
	Assessment *models.Assessment       `json:"assessment"`
	Invite     *models.AssessmentInvite `json:"invite"`
	Repo       *models.CandidateRepo    `json:"repo,omitempty"`
	Git        *CloneInfo               `json:"git,omitempty"`
}

// StartAssessment transitions a pending invite to started: it pins the seed's
// current main head, provisions an independent candidate repository at that
// commit, persists the transition, and mints clone credentials. The status
// flip happens only after provisioning succeeds.
func (s *LifecycleService) StartAssessment(ctx context.Context, slug string) (*StartResult, error) {
	unlock := s.slugLocks.Lock(slug)
	defer unlock()

	invite, err := s.inviteBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if invite.Status == models.InviteStatusStarted || invite.Status == models.InviteStatusSubmitted {
		return nil, ErrInviteAlreadyStarted
	}
	if invite.Status == models.InviteStatusExpired {
		return nil, ErrStartDeadlinePassed
	}

	now := s.now().UTC()
	if deadlinePassed(now, invite.StartDeadlineAt) {
		// The expiry must be durable even though the call fails.
		if err := s.db.WithContext(ctx).
			Model(&models.AssessmentInvite{}).
			Where("id = ?", invite.ID).
			Update("status", models.InviteStatusExpired).Error; err != nil {
			return nil, fmt.Errorf("lifecycle: persist expiry: %w", err)
		}
		recordAudit(s.db.WithContext(ctx), invite.ID, "invite.expired", map[string]any{"slug": slug})
		metrics.InviteTransitions.WithLabelValues("expired").Inc()
		return nil, ErrStartDeadlinePassed
	}

	var assessment models.Assessment
	if err := s.db.WithContext(ctx).First(&assessment, "id = ?", invite.AssessmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("lifecycle: load assessment: %w", err)
	}

	seedFullName, err := github.ParseRepoFullName(assessment.SeedRepoURL)
	if err != nil {
		metrics.ProvisionAttempts.WithLabelValues("upstream_error").Inc()
		return nil, fmt.Errorf("%w: %s", ErrProvisionFailed, err)
	}

	provisioned, err := s.provisioner.CreateCandidateRepo(ctx, seedFullName)
	if err != nil {
		if errors.Is(err, github.ErrNotConfigured) {
			metrics.ProvisionAttempts.WithLabelValues("config_error").Inc()
			return nil, err
		}
		metrics.ProvisionAttempts.WithLabelValues("upstream_error").Inc()
		return nil, fmt.Errorf("%w: %s", ErrProvisionFailed, err)
	}

	completeDeadline := CompleteDeadline(now, assessment.CompleteWithinHours)
	repo := &models.CandidateRepo{
		InviteID:      invite.ID,
		RepoFullName:  provisioned.RepoFullName,
		GitProvider:   "github",
		PinnedMainSHA: provisioned.PinnedMainSHA,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(repo).Error; err != nil {
			return fmt.Errorf("lifecycle: create candidate repo: %w", err)
		}

		// Compare-and-swap on status: if another start won the race between
		// our read and this write, zero rows match and everything rolls back.
		result := tx.Model(&models.AssessmentInvite{}).
			Where("id = ? AND status = ?", invite.ID, models.InviteStatusPending).
			Updates(map[string]any{
				"status":               models.InviteStatusStarted,
				"started_at":           now,
				"complete_deadline_at": completeDeadline,
			})
		if result.Error != nil {
			return fmt.Errorf("lifecycle: mark started: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInviteAlreadyStarted
		}

		// Opportunistic backfill of the cached seed SHA; never authoritative.
		if err := tx.Model(&models.SeedRepo{}).
			Where("assessment_id = ? AND (latest_main_sha IS NULL OR latest_main_sha = '')", assessment.ID).
			Update("latest_main_sha", provisioned.PinnedMainSHA).Error; err != nil {
			return fmt.Errorf("lifecycle: backfill seed sha: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInviteAlreadyStarted) {
			s.log.Warn("start race lost after provisioning; remote repo orphaned",
				zap.String("slug", slug),
				zap.String("repo", provisioned.RepoFullName),
			)
		}
		return nil, err
	}

	invite.Status = models.InviteStatusStarted
	invite.StartedAt = &now
	invite.CompleteDeadlineAt = &completeDeadline

	metrics.ProvisionAttempts.WithLabelValues("success").Inc()
	metrics.InviteTransitions.WithLabelValues("started").Inc()
	recordAudit(s.db.WithContext(ctx), invite.ID, "invite.started", map[string]any{
		"repo":       repo.RepoFullName,
		"pinned_sha": repo.PinnedMainSHA,
	})

	return &StartResult{
		Invite: invite,
		Repo:   repo,
		Git:    s.mintCloneInfo(ctx, invite, repo),
	}, nil
}

// SubmitAssessment finalises a started invite: every unrevoked token is
// revoked, a submission snapshot is recorded, and the invite becomes
// submitted. Only valid from started.
func (s *LifecycleService) SubmitAssessment(ctx context.Context, slug string) (*SubmitResult, error) {
	unlock := s.slugLocks.Lock(slug)
	defer unlock()

	invite, err := s.inviteBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if invite.Status != models.InviteStatusStarted {
		return nil, ErrInviteNotStarted
	}

	repo, err := s.repoForInvite(ctx, invite.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	submission := models.Submission{
		InviteID: invite.ID,
		// Snapshots the pinned seed commit; fetching the candidate's true
		// head at submission is a known follow-up.
		FinalSHA:    repo.PinnedMainSHA,
		SubmittedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.tokens.RevokeAllTx(tx, repo.ID); err != nil {
			return err
		}

		if err := tx.Create(&submission).Error; err != nil {
			return fmt.Errorf("lifecycle: create submission: %w", err)
		}

		result := tx.Model(&models.AssessmentInvite{}).
			Where("id = ? AND status = ?", invite.ID, models.InviteStatusStarted).
			Updates(map[string]any{
				"status":       models.InviteStatusSubmitted,
				"submitted_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("lifecycle: mark submitted: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInviteNotStarted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.InviteTransitions.WithLabelValues("submitted").Inc()
	recordAudit(s.db.WithContext(ctx), invite.ID, "invite.submitted", map[string]any{
		"final_sha": submission.FinalSHA,
	})

	return &SubmitResult{
		FinalSHA:    submission.FinalSHA,
		SubmittedAt: now,
	}, nil
}

// GetStartInfo returns the candidate's view of an invite. When a candidate
// repository exists, each read mints a fresh short-lived token; issuance
// failures degrade to returning the repository identity without a credential
// rather than failing the read.
func (s *LifecycleService) GetStartInfo(ctx context.Context, slug string) (*StartInfo, error) {
	invite, err := s.inviteBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	var assessment models.Assessment
	if err := s.db.WithContext(ctx).First(&assessment, "id = ?", invite.AssessmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("lifecycle: load assessment: %w", err)
	}

	info := &StartInfo{
		Assessment: &assessment,
		Invite:     invite,
	}

	repo, err := s.repoForInvite(ctx, invite.ID)
	if err != nil {
		if errors.Is(err, ErrCandidateRepoNotFound) {
			return info, nil
		}
		return nil, err
	}

	info.Repo = repo
	if invite.Status == models.InviteStatusStarted {
		// Fresh credential on every read while in progress. Submission
		// revokes access; a later read must not restore it.
		info.Git = s.mintCloneInfo(ctx, invite, repo)
	} else {
		info.Git = &CloneInfo{
			CloneURL: cloneURL(repo.RepoFullName),
			Branch:   "main",
		}
	}
	return info, nil
}

// mintCloneInfo issues a fresh token scoped to the invite's complete deadline
// (or the default TTL when none is set yet). Failures degrade to a bare clone
// URL so the read path still renders.
func (s *LifecycleService) mintCloneInfo(ctx context.Context, invite *models.AssessmentInvite, repo *models.CandidateRepo) *CloneInfo {
	info := &CloneInfo{
		CloneURL: cloneURL(repo.RepoFullName),
		Branch:   "main",
	}

	expiresAt := s.now().UTC().Add(s.tokenTTL)
	if invite.CompleteDeadlineAt != nil {
		expiresAt = invite.CompleteDeadlineAt.UTC()
	}

	_, plaintext, err := s.tokens.Issue(ctx, repo.ID, expiresAt)
	if err != nil {
		s.log.Warn("token issuance failed; returning clone URL without credential",
			zap.String("repo", repo.RepoFullName),
			zap.Error(err),
		)
		return info
	}

	info.Token = plaintext
	info.TokenExpiresAt = &expiresAt
	return info
}

func cloneURL(fullName string) string {
	return fmt.Sprintf("https://github.com/%s.git", fullName)
}

func (s *LifecycleService) inviteBySlug(ctx context.Context, slug string) (*models.AssessmentInvite, error) {
	var invite models.AssessmentInvite
	err := s.db.WithContext(ctx).Where("start_url_slug = ?", slug).First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("lifecycle: find invite: %w", err)
	}
	return &invite, nil
}

func (s *LifecycleService) repoForInvite(ctx context.Context, inviteID string) (*models.CandidateRepo, error) {
	var repo models.CandidateRepo
	err := s.db.WithContext(ctx).Where("invite_id = ?", inviteID).First(&repo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateRepoNotFound
		}
		return nil, fmt.Errorf("lifecycle: load candidate repo: %w", err)
	}
	return &repo, nil
}
