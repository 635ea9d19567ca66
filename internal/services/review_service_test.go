package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hireloop/takehome/internal/github"
	"github.com/hireloop/takehome/internal/models"
)

func reviewFixture(t *testing.T, db *gorm.DB, provisioner RepoProvisioner, mailer *fakeMailer) (*ReviewService, *models.AssessmentInvite) {
	t.Helper()

	assessment := createTestAssessment(t, db)
	invite := createTestInvite(t, db, assessment, models.InviteStatusSubmitted, testNow.Add(24*time.Hour))
	require.NoError(t, db.Create(&models.CandidateRepo{
		InviteID:      invite.ID,
		RepoFullName:  "acme-hiring/candidate-review",
		GitProvider:   "github",
		PinnedMainSHA: "base-sha",
	}).Error)

	review, err := NewReviewService(db, provisioner, mailer,
		WithReviewClock(fixedClock(testNow)),
		WithAdminAddress("hiring@example.com"),
	)
	require.NoError(t, err)

	return review, invite
}

func TestGetOverview(t *testing.T) {
	db := newTestDB(t)
	provisioner := &fakeProvisioner{
		commits: []github.Commit{
			{SHA: "c2", Message: "add feature", Date: testNow},
			{SHA: "c1", Message: "initial", Date: testNow.Add(-time.Hour)},
		},
	}
	review, invite := reviewFixture(t, db, provisioner, nil)

	overview, err := review.GetOverview(context.Background(), invite.ID)
	require.NoError(t, err)
	require.Equal(t, invite.ID, overview.Invite.ID)
	require.NotNil(t, overview.Repo)
	require.Len(t, overview.Commits, 2)
}

func TestGetOverviewDegradesWithoutCommits(t *testing.T) {
	db := newTestDB(t)
	provisioner := &fakeProvisioner{commitsErr: errors.New("api: 502")}
	review, invite := reviewFixture(t, db, provisioner, nil)

	overview, err := review.GetOverview(context.Background(), invite.ID)
	require.NoError(t, err)
	require.Empty(t, overview.Commits)
	require.NotNil(t, overview.Commits)
}

func TestGetDiff(t *testing.T) {
	db := newTestDB(t)
	provisioner := &fakeProvisioner{
		comparison: &github.Comparison{
			Status:  "ahead",
			AheadBy: 3,
			Files: []github.DiffFile{
				{Filename: "main.go", Additions: 10, Status: "modified"},
			},
		},
	}
	review, invite := reviewFixture(t, db, provisioner, nil)

	diff, err := review.GetDiff(context.Background(), invite.ID)
	require.NoError(t, err)
	require.Equal(t, 3, diff.AheadBy)
	require.Len(t, diff.Files, 1)
}

func TestGetDiffCompareNotFoundIsEmpty(t *testing.T) {
	db := newTestDB(t)
	provisioner := &fakeProvisioner{compareErr: github.ErrCompareNotFound}
	review, invite := reviewFixture(t, db, provisioner, nil)

	diff, err := review.GetDiff(context.Background(), invite.ID)
	require.NoError(t, err)
	require.Empty(t, diff.Files)
	require.NotNil(t, diff.Files)
}

func TestGetDiffUpstreamFailure(t *testing.T) {
	db := newTestDB(t)
	provisioner := &fakeProvisioner{compareErr: errors.New("api: 500 from hosting provider")}
	review, invite := reviewFixture(t, db, provisioner, nil)

	_, err := review.GetDiff(context.Background(), invite.ID)
	require.ErrorIs(t, err, ErrDiffUnavailable)
}

func TestGetDiffWithoutRepo(t *testing.T) {
	db := newTestDB(t)
	assessment := createTestAssessment(t, db)
	invite := createTestInvite(t, db, assessment, models.InviteStatusPending, testNow.Add(24*time.Hour))

	review, err := NewReviewService(db, &fakeProvisioner{}, nil)
	require.NoError(t, err)

	_, err = review.GetDiff(context.Background(), invite.ID)
	require.ErrorIs(t, err, ErrCandidateRepoNotFound)
}

func TestAddCommentNotifiesCounterpart(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	review, invite := reviewFixture(t, db, &fakeProvisioner{}, mailer)

	_, err := review.AddComment(context.Background(), invite.ID, AddCommentInput{
		AuthorType:  "admin",
		AuthorEmail: "Reviewer@Example.com",
		Message:     "Please explain the locking strategy.",
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	require.Equal(t, []string{invite.Candidate.Email}, mailer.sent[0].To)

	_, err = review.AddComment(context.Background(), invite.ID, AddCommentInput{
		AuthorType:  "candidate",
		AuthorEmail: invite.Candidate.Email,
		Message:     "It serializes per slug.",
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 2)
	require.Equal(t, []string{"hiring@example.com"}, mailer.sent[1].To)

	comments, err := review.ListComments(context.Background(), invite.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "reviewer@example.com", comments[0].AuthorEmail)
}

func TestInlineComments(t *testing.T) {
	db := newTestDB(t)
	review, invite := reviewFixture(t, db, &fakeProvisioner{}, nil)

	line := 42
	created, err := review.AddInlineComment(context.Background(), invite.ID, AddInlineCommentInput{
		FilePath:    "internal/server.go",
		Line:        &line,
		Message:     "This handler leaks the body.",
		AuthorEmail: "reviewer@example.com",
	})
	require.NoError(t, err)

	listed, err := review.ListInlineComments(context.Background(), invite.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, created.ID, listed[0].ID)

	require.NoError(t, review.DeleteInlineComment(context.Background(), invite.ID, created.ID))
	err = review.DeleteInlineComment(context.Background(), invite.ID, created.ID)
	require.ErrorIs(t, err, ErrCommentNotFound)
}

func TestSendInlineCommentsEmail(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	review, invite := reviewFixture(t, db, &fakeProvisioner{}, mailer)

	_, err := review.AddInlineComment(context.Background(), invite.ID, AddInlineCommentInput{
		FilePath:    "README.md",
		Message:     "Docs need a setup section.",
		AuthorEmail: "reviewer@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, review.SendInlineCommentsEmail(context.Background(), invite.ID))
	require.Len(t, mailer.sent, 1)
	require.True(t, mailer.sent[0].HTML)
	require.Contains(t, mailer.sent[0].Body, "README.md")
}

func TestFollowUpTemplateRoundTrip(t *testing.T) {
	db := newTestDB(t)
	review, _ := reviewFixture(t, db, &fakeProvisioner{}, nil)

	// absent row falls back to the seeded default
	template, err := review.GetFollowUpTemplate(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, template.Subject)
	require.NotEmpty(t, template.Body)

	require.NoError(t, review.UpdateFollowUpTemplate(context.Background(), FollowUpTemplate{
		Subject: "Next steps",
		Body:    "We'd love to talk again.",
	}))

	template, err = review.GetFollowUpTemplate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Next steps", template.Subject)
}

func TestSendFollowUpRecordsHistory(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	review, invite := reviewFixture(t, db, &fakeProvisioner{}, mailer)

	record, err := review.SendFollowUp(context.Background(), invite.ID)
	require.NoError(t, err)
	require.Equal(t, testNow, record.SentAt)
	require.Len(t, mailer.sent, 1)
	require.Equal(t, []string{invite.Candidate.Email}, mailer.sent[0].To)

	history, err := review.ListFollowUps(context.Background(), invite.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, record.TemplateSubject, history[0].TemplateSubject)
}
