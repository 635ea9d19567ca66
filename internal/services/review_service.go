package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hireloop/takehome/internal/database"
	"github.com/hireloop/takehome/internal/github"
	"github.com/hireloop/takehome/internal/models"
	"github.com/hireloop/takehome/pkg/logger"
	"github.com/hireloop/takehome/pkg/mail"
)

// ReviewOption customises ReviewService behaviour.
type ReviewOption func(*ReviewService)

// WithReviewClock injects a custom clock primarily for testing.
func WithReviewClock(clock func() time.Time) ReviewOption {
	return func(s *ReviewService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithAdminAddress sets the address notified when a candidate comments.
func WithAdminAddress(addr string) ReviewOption {
	return func(s *ReviewService) {
		s.adminAddr = addr
	}
}

// ReviewService serves the reviewer-facing read path (submission overview,
// diffs against the pinned seed commit) and the comment and follow-up
// workflows around a submission.
type ReviewService struct {
	db          *gorm.DB
	provisioner RepoProvisioner
	mailer      mail.Mailer
	adminAddr   string
	now         func() time.Time
	log         *zap.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(db *gorm.DB, provisioner RepoProvisioner, mailer mail.Mailer, opts ...ReviewOption) (*ReviewService, error) {
	if db == nil {
		return nil, errors.New("review service: db is required")
	}
	if provisioner == nil {
		return nil, errors.New("review service: provisioner is required")
	}

	service := &ReviewService{
		db:          db,
		provisioner: provisioner,
		mailer:      mailer,
		now:         time.Now,
		log:         logger.WithModule("review"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Overview aggregates everything a reviewer needs about one invite. Commit
// history is best effort: hosting failures degrade to an empty list so the
// stored rows still render.
type Overview struct {
	Invite     *models.AssessmentInvite `json:"invite"`
	Assessment *models.Assessment       `json:"assessment"`
	Candidate  *models.Candidate        `json:"candidate"`
	Repo       *models.CandidateRepo    `json:"repo,omitempty"`
	Submission *models.Submission       `json:"submission,omitempty"`
	Commits    []github.Commit          `json:"commits"`
}

// GetOverview returns the review overview for an invite.
func (s *ReviewService) GetOverview(ctx context.Context, inviteID string) (*Overview, error) {
	invite, err := s.loadInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		Invite:     invite,
		Assessment: invite.Assessment,
		Candidate:  invite.Candidate,
		Repo:       invite.CandidateRepo,
		Submission: invite.Submission,
		Commits:    []github.Commit{},
	}

	if invite.CandidateRepo != nil {
		commits, err := s.provisioner.ListCommits(ctx, invite.CandidateRepo.RepoFullName, "main")
		if err != nil {
			s.log.Warn("commit history unavailable",
				zap.String("repo", invite.CandidateRepo.RepoFullName),
				zap.Error(err),
			)
		} else {
			overview.Commits = commits
		}
	}

	return overview, nil
}

// GetDiff compares the candidate repository's main branch against the pinned
// seed commit. A comparison the host cannot compute maps to an empty diff;
// other hosting failures surface as ErrDiffUnavailable.
func (s *ReviewService) GetDiff(ctx context.Context, inviteID string) (*github.Comparison, error) {
	invite, err := s.loadInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if invite.CandidateRepo == nil {
		return nil, ErrCandidateRepoNotFound
	}

	repo := invite.CandidateRepo
	comparison, err := s.provisioner.CompareCommits(ctx, repo.RepoFullName, repo.PinnedMainSHA, "main")
	if err != nil {
		if errors.Is(err, github.ErrCompareNotFound) {
			return &github.Comparison{Status: "identical", Files: []github.DiffFile{}}, nil
		}
		if errors.Is(err, github.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrDiffUnavailable, err)
	}
	if comparison.Files == nil {
		comparison.Files = []github.DiffFile{}
	}
	return comparison, nil
}

// AddCommentInput carries the fields for a new review thread comment.
type AddCommentInput struct {
	AuthorType  string `json:"author_type" validate:"required,oneof=admin candidate"`
	AuthorEmail string `json:"author_email" validate:"required,email"`
	AuthorName  string `json:"author_name,omitempty"`
	Message     string `json:"message" validate:"required,min=1"`
}

// AddComment appends a comment to the invite's review thread and notifies the
// other party by email, best effort.
func (s *ReviewService) AddComment(ctx context.Context, inviteID string, input AddCommentInput) (*models.ReviewComment, error) {
	invite, err := s.loadInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	comment := models.ReviewComment{
		InviteID:    invite.ID,
		AuthorType:  input.AuthorType,
		AuthorEmail: strings.ToLower(strings.TrimSpace(input.AuthorEmail)),
		AuthorName:  input.AuthorName,
		Message:     input.Message,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("review service: create comment: %w", err)
	}

	s.notifyComment(ctx, invite, &comment)
	return &comment, nil
}

// ListComments returns the invite's review thread, oldest first.
func (s *ReviewService) ListComments(ctx context.Context, inviteID string) ([]models.ReviewComment, error) {
	if _, err := s.loadInvite(ctx, inviteID); err != nil {
		return nil, err
	}

	var comments []models.ReviewComment
	err := s.db.WithContext(ctx).
		Where("invite_id = ?", inviteID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("review service: list comments: %w", err)
	}
	return comments, nil
}

// AddInlineCommentInput carries the fields for a new inline comment.
type AddInlineCommentInput struct {
	FilePath    string `json:"file_path" validate:"required"`
	Line        *int   `json:"line,omitempty"`
	Message     string `json:"message" validate:"required,min=1"`
	AuthorEmail string `json:"author_email" validate:"required,email"`
	AuthorName  string `json:"author_name,omitempty"`
}

// AddInlineComment anchors reviewer commentary to a file of the diff.
func (s *ReviewService) AddInlineComment(ctx context.Context, inviteID string, input AddInlineCommentInput) (*models.ReviewInlineComment, error) {
	invite, err := s.loadInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	comment := models.ReviewInlineComment{
		InviteID:    invite.ID,
		FilePath:    input.FilePath,
		Line:        input.Line,
		Message:     input.Message,
		AuthorEmail: strings.ToLower(strings.TrimSpace(input.AuthorEmail)),
		AuthorName:  input.AuthorName,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("review service: create inline comment: %w", err)
	}
	return &comment, nil
}

// ListInlineComments returns inline comments grouped in file order.
func (s *ReviewService) ListInlineComments(ctx context.Context, inviteID string) ([]models.ReviewInlineComment, error) {
	if _, err := s.loadInvite(ctx, inviteID); err != nil {
		return nil, err
	}

	var comments []models.ReviewInlineComment
	err := s.db.WithContext(ctx).
		Where("invite_id = ?", inviteID).
		Order("file_path ASC, line ASC, created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("review service: list inline comments: %w", err)
	}
	return comments, nil
}

// DeleteInlineComment removes one inline comment from the invite.
func (s *ReviewService) DeleteInlineComment(ctx context.Context, inviteID, commentID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND invite_id = ?", commentID, inviteID).
		Delete(&models.ReviewInlineComment{})
	if result.Error != nil {
		return fmt.Errorf("review service: delete inline comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// FollowUpTemplate is the stored subject/body used for follow-up emails.
type FollowUpTemplate struct {
	Subject string `json:"subject" validate:"required,min=1"`
	Body    string `json:"body" validate:"required,min=1"`
}

// GetFollowUpTemplate loads the template from settings, creating the default
// row when absent.
func (s *ReviewService) GetFollowUpTemplate(ctx context.Context) (*FollowUpTemplate, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).Where("key = ?", database.FollowUpTemplateKey).First(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review service: load template: %w", err)
		}
		if err := database.SeedData(s.db.WithContext(ctx)); err != nil {
			return nil, fmt.Errorf("review service: seed template: %w", err)
		}
		if err := s.db.WithContext(ctx).Where("key = ?", database.FollowUpTemplateKey).First(&setting).Error; err != nil {
			return nil, fmt.Errorf("review service: reload template: %w", err)
		}
	}

	var template FollowUpTemplate
	if err := json.Unmarshal([]byte(setting.Value), &template); err != nil {
		return nil, fmt.Errorf("review service: decode template: %w", err)
	}
	return &template, nil
}

// UpdateFollowUpTemplate replaces the stored follow-up template.
func (s *ReviewService) UpdateFollowUpTemplate(ctx context.Context, template FollowUpTemplate) error {
	value, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("review service: encode template: %w", err)
	}

	setting := models.Setting{Key: database.FollowUpTemplateKey, Value: string(value)}
	err = s.db.WithContext(ctx).
		Where(models.Setting{Key: database.FollowUpTemplateKey}).
		Assign(map[string]any{"value": string(value)}).
		FirstOrCreate(&setting).Error
	if err != nil {
		return fmt.Errorf("review service: store template: %w", err)
	}
	return nil
}

// SendFollowUp sends the follow-up email to the invite's candidate using the
// stored template and records the delivery.
func (s *ReviewService) SendFollowUp(ctx context.Context, inviteID string) (*models.FollowUpEmail, error) {
	invite, err := s.loadInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if invite.Candidate == nil {
		return nil, ErrInviteNotFound
	}

	template, err := s.GetFollowUpTemplate(ctx)
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		err := s.mailer.Send(ctx, mail.Message{
			To:      []string{invite.Candidate.Email},
			Subject: template.Subject,
			Body:    template.Body,
		})
		if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
			return nil, fmt.Errorf("review service: send follow-up: %w", err)
		}
	}

	record := models.FollowUpEmail{
		InviteID:        invite.ID,
		SentAt:          s.now().UTC(),
		TemplateSubject: template.Subject,
		TemplateBody:    template.Body,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("review service: record follow-up: %w", err)
	}

	recordAudit(s.db.WithContext(ctx), invite.ID, "followup.sent", map[string]any{
		"subject": template.Subject,
	})
	return &record, nil
}

// ListFollowUps returns the invite's follow-up history, newest first.
func (s *ReviewService) ListFollowUps(ctx context.Context, inviteID string) ([]models.FollowUpEmail, error) {
	if _, err := s.loadInvite(ctx, inviteID); err != nil {
		return nil, err
	}

	var followUps []models.FollowUpEmail
	err := s.db.WithContext(ctx).
		Where("invite_id = ?", inviteID).
		Order("sent_at DESC").
		Find(&followUps).Error
	if err != nil {
		return nil, fmt.Errorf("review service: list follow-ups: %w", err)
	}
	return followUps, nil
}

// SendInlineCommentsEmail emails the invite's inline comments to the
// candidate as a single HTML digest.
func (s *ReviewService) SendInlineCommentsEmail(ctx context.Context, inviteID string) error {
	invite, err := s.loadInvite(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite.Candidate == nil {
		return ErrInviteNotFound
	}

	comments, err := s.ListInlineComments(ctx, inviteID)
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		return ErrCommentNotFound
	}
	if s.mailer == nil {
		return mail.ErrSMTPDisabled
	}

	title := "your submission"
	if invite.Assessment != nil {
		title = invite.Assessment.Title
	}

	return s.mailer.Send(ctx, mail.Message{
		To:      []string{invite.Candidate.Email},
		Subject: fmt.Sprintf("Review feedback on %s", title),
		Body:    inlineCommentsHTML(title, comments),
		HTML:    true,
	})
}

func (s *ReviewService) loadInvite(ctx context.Context, inviteID string) (*models.AssessmentInvite, error) {
	var invite models.AssessmentInvite
	err := s.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Assessment").
		Preload("CandidateRepo").
		Preload("Submission").
		First(&invite, "id = ?", inviteID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("review service: load invite: %w", err)
	}
	return &invite, nil
}

// notifyComment emails the counterpart of the comment author. Best effort.
func (s *ReviewService) notifyComment(ctx context.Context, invite *models.AssessmentInvite, comment *models.ReviewComment) {
	if s.mailer == nil {
		return
	}

	var to string
	switch comment.AuthorType {
	case "admin":
		if invite.Candidate != nil {
			to = invite.Candidate.Email
		}
	case "candidate":
		to = s.adminAddr
	}
	if to == "" {
		return
	}

	title := "your take-home assessment"
	if invite.Assessment != nil {
		title = invite.Assessment.Title
	}

	err := s.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("New comment on %s", title),
		Body: fmt.Sprintf("%s wrote:\r\n\r\n%s\r\n",
			commentAuthorLabel(comment), comment.Message),
	})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		s.log.Warn("comment notification failed",
			zap.String("invite_id", invite.ID),
			zap.Error(err),
		)
	}
}

func commentAuthorLabel(comment *models.ReviewComment) string {
	if comment.AuthorName != "" {
		return comment.AuthorName
	}
	return comment.AuthorEmail
}

func inlineCommentsHTML(title string, comments []models.ReviewInlineComment) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Review feedback on %s</h2>", html.EscapeString(title))
	b.WriteString("<ul>")
	for _, c := range comments {
		location := html.EscapeString(c.FilePath)
		if c.Line != nil {
			location = fmt.Sprintf("%s:%d", location, *c.Line)
		}
		fmt.Fprintf(&b, "<li><strong>%s</strong> &mdash; %s</li>",
			location, html.EscapeString(c.Message))
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}
