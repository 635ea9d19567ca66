package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hireloop/takehome/internal/database"
	"github.com/hireloop/takehome/internal/github"
	"github.com/hireloop/takehome/internal/models"
	"github.com/hireloop/takehome/pkg/mail"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	return db
}

func createTestAssessment(t *testing.T, db *gorm.DB) *models.Assessment {
	t.Helper()

	assessment := &models.Assessment{
		Title:               "Backend Exercise",
		Description:         "Build a small service",
		SeedRepoURL:         "https://github.com/acme/seed-backend",
		StartWithinHours:    72,
		CompleteWithinHours: 48,
	}
	require.NoError(t, db.Create(assessment).Error)
	require.NoError(t, db.Create(&models.SeedRepo{
		AssessmentID:  assessment.ID,
		DefaultBranch: "main",
	}).Error)

	return assessment
}

func createTestInvite(t *testing.T, db *gorm.DB, assessment *models.Assessment, status models.InviteStatus, startDeadline time.Time) *models.AssessmentInvite {
	t.Helper()

	candidate := &models.Candidate{Email: fmt.Sprintf("%s@example.com", strings.ToLower(t.Name()))}
	err := db.Where("email = ?", candidate.Email).FirstOrCreate(candidate).Error
	require.NoError(t, err)

	invite := &models.AssessmentInvite{
		AssessmentID:    assessment.ID,
		CandidateID:     candidate.ID,
		Status:          status,
		StartDeadlineAt: &startDeadline,
		StartURLSlug:    strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-")),
	}
	require.NoError(t, db.Create(invite).Error)

	invite.Candidate = candidate
	return invite
}

// fakeProvisioner satisfies RepoProvisioner without talking to any hosting API.
type fakeProvisioner struct {
	branchSHA    string
	provision    *github.ProvisionResult
	provisionErr error
	comparison   *github.Comparison
	compareErr   error
	commits      []github.Commit
	commitsErr   error

	createCalls int
}

func (f *fakeProvisioner) GetBranchSHA(ctx context.Context, fullName, branch string) (string, error) {
	return f.branchSHA, nil
}

func (f *fakeProvisioner) CreateCandidateRepo(ctx context.Context, seedFullName string) (*github.ProvisionResult, error) {
	f.createCalls++
	if f.provisionErr != nil {
		return nil, f.provisionErr
	}
	return f.provision, nil
}

func (f *fakeProvisioner) CompareCommits(ctx context.Context, fullName, base, head string) (*github.Comparison, error) {
	if f.compareErr != nil {
		return nil, f.compareErr
	}
	return f.comparison, nil
}

func (f *fakeProvisioner) ListCommits(ctx context.Context, fullName, branch string) ([]github.Commit, error) {
	if f.commitsErr != nil {
		return nil, f.commitsErr
	}
	return f.commits, nil
}

// fakeMailer captures outbound messages.
type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
