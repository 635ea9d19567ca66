package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hireloop/takehome/internal/app"
	"github.com/hireloop/takehome/internal/database"
	"github.com/hireloop/takehome/internal/github"
	"github.com/hireloop/takehome/internal/services"
)

type stubProvisioner struct {
	result *github.ProvisionResult
	err    error
}

func (s *stubProvisioner) GetBranchSHA(ctx context.Context, fullName, branch string) (string, error) {
	return "stub-sha", nil
}

func (s *stubProvisioner) CreateCandidateRepo(ctx context.Context, seedFullName string) (*github.ProvisionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubProvisioner) CompareCommits(ctx context.Context, fullName, base, head string) (*github.Comparison, error) {
	return &github.Comparison{Files: []github.DiffFile{}}, nil
}

func (s *stubProvisioner) ListCommits(ctx context.Context, fullName, branch string) ([]github.Commit, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, provisioner services.RepoProvisioner) http.Handler {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateAndSeed(db))

	tokens, err := services.NewTokenService(db)
	require.NoError(t, err)
	lifecycle, err := services.NewLifecycleService(db, provisioner, tokens)
	require.NoError(t, err)
	invites, err := services.NewInviteService(db, nil)
	require.NoError(t, err)
	assessments, err := services.NewAssessmentService(db)
	require.NoError(t, err)
	review, err := services.NewReviewService(db, provisioner, nil)
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Health.Enabled = true

	return NewRouter(cfg, db, Services{
		Assessments: assessments,
		Invites:     invites,
		Lifecycle:   lifecycle,
		Review:      review,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestCandidateFlowOverHTTP(t *testing.T) {
	router := newTestRouter(t, &stubProvisioner{
		result: &github.ProvisionResult{
			RepoFullName:  "acme-hiring/candidate-http",
			PinnedMainSHA: "pinned",
		},
	})

	rec, payload := doJSON(t, router, http.MethodPost, "/api/assessments", `{
		"title": "HTTP Exercise",
		"seed_repo_url": "https://github.com/acme/seed",
		"start_within_hours": 72,
		"complete_within_hours": 48
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assessmentID := payload["data"].(map[string]any)["id"].(string)

	rec, payload = doJSON(t, router, http.MethodPost, "/api/assessments/"+assessmentID+"/invites", `{
		"candidate_email": "dev@example.com"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	data := payload["data"].(map[string]any)
	slug := data["invite"].(map[string]any)["start_url_slug"].(string)
	require.NotEmpty(t, slug)

	rec, payload = doJSON(t, router, http.MethodPost, "/api/candidate/"+slug+"/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	start := payload["data"].(map[string]any)
	require.Equal(t, "started", start["invite"].(map[string]any)["status"].(string))
	require.NotEmpty(t, start["git"].(map[string]any)["token"])

	// starting again is a precondition failure
	rec, payload = doJSON(t, router, http.MethodPost, "/api/candidate/"+slug+"/start", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "PRECONDITION_FAILED", payload["error"].(map[string]any)["code"].(string))

	rec, payload = doJSON(t, router, http.MethodPost, "/api/candidate/"+slug+"/submit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "pinned", payload["data"].(map[string]any)["final_sha"].(string))

	rec, _ = doJSON(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStartReportsConfigurationError(t *testing.T) {
	router := newTestRouter(t, &stubProvisioner{err: github.ErrNotConfigured})

	rec, payload := doJSON(t, router, http.MethodPost, "/api/assessments", `{
		"title": "Unconfigured",
		"seed_repo_url": "acme/seed",
		"start_within_hours": 72,
		"complete_within_hours": 48
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assessmentID := payload["data"].(map[string]any)["id"].(string)

	rec, payload = doJSON(t, router, http.MethodPost, "/api/assessments/"+assessmentID+"/invites", `{
		"candidate_email": "dev@example.com"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	slug := payload["data"].(map[string]any)["invite"].(map[string]any)["start_url_slug"].(string)

	rec, payload = doJSON(t, router, http.MethodPost, "/api/candidate/"+slug+"/start", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "CONFIGURATION_ERROR", payload["error"].(map[string]any)["code"].(string))
}

func TestUnknownSlugIs404(t *testing.T) {
	router := newTestRouter(t, &stubProvisioner{})

	rec, payload := doJSON(t, router, http.MethodGet, "/api/candidate/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", payload["error"].(map[string]any)["code"].(string))
}
