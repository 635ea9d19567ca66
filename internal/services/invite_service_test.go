package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hireloop/takehome/internal/models"
)

func TestCreateInvite(t *testing.T) {
	db := newTestDB(t)
	assessment := createTestAssessment(t, db)

	mailer := &fakeMailer{}
	invites, err := NewInviteService(db, mailer,
		WithInviteClock(fixedClock(testNow)),
		WithPublicBaseURL("https://hire.example.com"),
	)
	require.NoError(t, err)

	invite, err := invites.CreateInvite(context.Background(), CreateInviteInput{
		AssessmentID:   assessment.ID,
		CandidateEmail: "Jordan.Doe@Example.COM",
		CandidateName:  "Jordan Doe",
	})
	require.NoError(t, err)

	require.Equal(t, models.InviteStatusPending, invite.Status)
	require.Equal(t, "jordan.doe@example.com", invite.Candidate.Email)
	require.NotEmpty(t, invite.StartURLSlug)
	require.Equal(t, invite.StartURLSlug, strings.ToLower(invite.StartURLSlug))

	require.NotNil(t, invite.StartDeadlineAt)
	require.Equal(t, testNow.Add(72*time.Hour), invite.StartDeadlineAt.UTC())

	require.Len(t, mailer.sent, 1)
	require.Equal(t, []string{"jordan.doe@example.com"}, mailer.sent[0].To)
	require.Contains(t, mailer.sent[0].Body, "https://hire.example.com/start/"+invite.StartURLSlug)
}

func TestCreateInviteReusesCandidate(t *testing.T) {
	db := newTestDB(t)
	assessment := createTestAssessment(t, db)

	invites, err := NewInviteService(db, nil, WithInviteClock(fixedClock(testNow)))
	require.NoError(t, err)

	first, err := invites.CreateInvite(context.Background(), CreateInviteInput{
		AssessmentID:   assessment.ID,
		CandidateEmail: "same@example.com",
	})
	require.NoError(t, err)

	second, err := invites.CreateInvite(context.Background(), CreateInviteInput{
		AssessmentID:   assessment.ID,
		CandidateEmail: "SAME@example.com",
	})
	require.NoError(t, err)

	require.Equal(t, first.CandidateID, second.CandidateID)
	require.NotEqual(t, first.StartURLSlug, second.StartURLSlug)

	var count int64
	require.NoError(t, db.Model(&models.Candidate{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateInviteUnknownAssessment(t *testing.T) {
	db := newTestDB(t)

	invites, err := NewInviteService(db, nil)
	require.NoError(t, err)

	_, err = invites.CreateInvite(context.Background(), CreateInviteInput{
		AssessmentID:   "0b6f86a3-20ac-4df5-90b5-ee5aeb53a614",
		CandidateEmail: "who@example.com",
	})
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestCreateInviteSurvivesMailFailure(t *testing.T) {
	db := newTestDB(t)
	assessment := createTestAssessment(t, db)

	mailer := &fakeMailer{err: context.DeadlineExceeded}
	invites, err := NewInviteService(db, mailer)
	require.NoError(t, err)

	invite, err := invites.CreateInvite(context.Background(), CreateInviteInput{
		AssessmentID:   assessment.ID,
		CandidateEmail: "flaky@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, invite.StartURLSlug)
}

func TestDeleteInviteCascades(t *testing.T) {
	db := newTestDB(t)
	assessment := createTestAssessment(t, db)
	invite := createTestInvite(t, db, assessment, models.InviteStatusSubmitted, testNow.Add(24*time.Hour))

	repo := &models.CandidateRepo{InviteID: invite.ID, RepoFullName: "acme-hiring/doomed", GitProvider: "github"}
	require.NoError(t, db.Create(repo).Error)
	require.NoError(t, db.Create(&models.RepoAccessToken{
		CandidateRepoID: repo.ID,
		TokenHash:       "digest",
		ExpiresAt:       testNow.Add(time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.Submission{InviteID: invite.ID, FinalSHA: "sha", SubmittedAt: testNow}).Error)
	require.NoError(t, db.Create(&models.ReviewComment{InviteID: invite.ID, AuthorType: "admin", AuthorEmail: "rev@example.com", Message: "nice"}).Error)
	require.NoError(t, db.Create(&models.ReviewInlineComment{InviteID: invite.ID, FilePath: "main.go", Message: "here", AuthorEmail: "rev@example.com"}).Error)
	require.NoError(t, db.Create(&models.FollowUpEmail{InviteID: invite.ID, SentAt: testNow, TemplateSubject: "s", TemplateBody: "b"}).Error)
	require.NoError(t, db.Create(&models.AuditEvent{InviteID: &invite.ID, EventType: "invite.started"}).Error)

	invites, err := NewInviteService(db, nil)
	require.NoError(t, err)
	require.NoError(t, invites.Delete(context.Background(), invite.ID))

	for _, model := range []any{
		&models.AssessmentInvite{},
		&models.CandidateRepo{},
		&models.Submission{},
		&models.ReviewComment{},
		&models.ReviewInlineComment{},
		&models.FollowUpEmail{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		require.Zero(t, count, "%T should be empty", model)
	}

	var tokenCount int64
	require.NoError(t, db.Model(&models.RepoAccessToken{}).Count(&tokenCount).Error)
	require.Zero(t, tokenCount)

	// audit history survives with the invite reference cleared
	var events []models.AuditEvent
	require.NoError(t, db.Where("event_type = ?", "invite.started").Find(&events).Error)
	require.Len(t, events, 1)
	require.Nil(t, events[0].InviteID)
}

func TestGetBySlug(t *testing.T) {
	db := newTestDB(t)
	assessment := createTestAssessment(t, db)
	invite := createTestInvite(t, db, assessment, models.InviteStatusPending, testNow.Add(24*time.Hour))

	invites, err := NewInviteService(db, nil)
	require.NoError(t, err)

	found, err := invites.GetBySlug(context.Background(), invite.StartURLSlug)
	require.NoError(t, err)
	require.Equal(t, invite.ID, found.ID)
	require.NotNil(t, found.Candidate)

	_, err = invites.GetBySlug(context.Background(), "missing")
	require.ErrorIs(t, err, ErrInviteNotFound)
}
