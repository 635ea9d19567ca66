package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hireloop/takehome/internal/models"
)

func TestCreateAssessment(t *testing.T) {
	db := newTestDB(t)

	assessments, err := NewAssessmentService(db)
	require.NoError(t, err)

	created, err := assessments.Create(context.Background(), CreateAssessmentInput{
		Title:               "Platform Exercise",
		SeedRepoURL:         "https://github.com/acme/seed-platform.git",
		StartWithinHours:    72,
		CompleteWithinHours: 48,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotNil(t, created.SeedRepo)
	require.Equal(t, "main", created.SeedRepo.DefaultBranch)

	var seedCount int64
	require.NoError(t, db.Model(&models.SeedRepo{}).Where("assessment_id = ?", created.ID).Count(&seedCount).Error)
	require.EqualValues(t, 1, seedCount)
}

func TestCreateAssessmentRejectsBadSeedURL(t *testing.T) {
	db := newTestDB(t)

	assessments, err := NewAssessmentService(db)
	require.NoError(t, err)

	_, err = assessments.Create(context.Background(), CreateAssessmentInput{
		Title:               "Broken",
		SeedRepoURL:         "ftp://example.com/not-a-repo",
		StartWithinHours:    72,
		CompleteWithinHours: 48,
	})
	require.ErrorIs(t, err, ErrInvalidSeedRepoURL)

	var count int64
	require.NoError(t, db.Model(&models.Assessment{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestListAssessmentsArchivedFilter(t *testing.T) {
	db := newTestDB(t)

	assessments, err := NewAssessmentService(db)
	require.NoError(t, err)

	active, err := assessments.Create(context.Background(), CreateAssessmentInput{
		Title:               "Active",
		SeedRepoURL:         "https://github.com/acme/seed-a",
		StartWithinHours:    72,
		CompleteWithinHours: 48,
	})
	require.NoError(t, err)

	archived, err := assessments.Create(context.Background(), CreateAssessmentInput{
		Title:               "Archived",
		SeedRepoURL:         "https://github.com/acme/seed-b",
		StartWithinHours:    72,
		CompleteWithinHours: 48,
	})
	require.NoError(t, err)
	_, err = assessments.SetArchived(context.Background(), archived.ID, true)
	require.NoError(t, err)

	visible, err := assessments.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, active.ID, visible[0].ID)

	all, err := assessments.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestUpdateAssessmentSeedURLClearsCachedSHA(t *testing.T) {
	db := newTestDB(t)

	assessments, err := NewAssessmentService(db)
	require.NoError(t, err)

	created, err := assessments.Create(context.Background(), CreateAssessmentInput{
		Title:               "Exercise",
		SeedRepoURL:         "https://github.com/acme/seed-old",
		StartWithinHours:    72,
		CompleteWithinHours: 48,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.SeedRepo{}).
		Where("assessment_id = ?", created.ID).
		Update("latest_main_sha", "cached-sha").Error)

	newURL := "git@github.com:acme/seed-new.git"
	newTitle := "Exercise v2"
	updated, err := assessments.Update(context.Background(), created.ID, UpdateAssessmentInput{
		Title:       &newTitle,
		SeedRepoURL: &newURL,
	})
	require.NoError(t, err)
	require.Equal(t, "Exercise v2", updated.Title)
	require.Equal(t, newURL, updated.SeedRepoURL)

	var seed models.SeedRepo
	require.NoError(t, db.First(&seed, "assessment_id = ?", created.ID).Error)
	require.Empty(t, seed.LatestMainSHA)
}

func TestDeleteAssessmentCascades(t *testing.T) {
	db := newTestDB(t)
	assessment := createTestAssessment(t, db)
	invite := createTestInvite(t, db, assessment, models.InviteStatusStarted, testNow.Add(24*time.Hour))

	repo := &models.CandidateRepo{InviteID: invite.ID, RepoFullName: "acme-hiring/cascade", GitProvider: "github"}
	require.NoError(t, db.Create(repo).Error)
	require.NoError(t, db.Create(&models.RepoAccessToken{
		CandidateRepoID: repo.ID,
		TokenHash:       "digest",
		ExpiresAt:       testNow.Add(time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.ReviewComment{InviteID: invite.ID, AuthorType: "admin", AuthorEmail: "rev@example.com", Message: "hello"}).Error)

	assessments, err := NewAssessmentService(db)
	require.NoError(t, err)
	require.NoError(t, assessments.Delete(context.Background(), assessment.ID))

	for _, model := range []any{
		&models.Assessment{},
		&models.SeedRepo{},
		&models.AssessmentInvite{},
		&models.CandidateRepo{},
		&models.RepoAccessToken{},
		&models.ReviewComment{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		require.Zero(t, count, "%T should be empty", model)
	}
}
