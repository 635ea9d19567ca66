package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBaseURL = "https://api.github.com"

var (
	// ErrNotConfigured indicates a missing API token or target owner. Callers
	// report this as a server configuration failure, not an upstream one.
	ErrNotConfigured = errors.New("github: token or target owner not configured")

	// ErrCompareNotFound marks a 404 from the compare endpoint specifically.
	// This is recoverable: the base commit may have vanished after a
	// force-push, and callers should treat it as "no diff available".
	ErrCompareNotFound = errors.New("github: compare not found")

	// ErrRefNotFound indicates a branch ref could not be resolved.
	ErrRefNotFound = errors.New("github: ref not found")
)

// APIError carries the status and body of a failed hosting API request.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Config holds the hosting credentials and provisioning tuning.
type Config struct {
	APIBaseURL     string
	Token          string
	TargetOwner    string
	RequestTimeout time.Duration
	CloneTimeout   time.Duration
	ScratchDir     string // parent for scratch clones; empty uses the OS default
}

// Client talks to the GitHub REST API and local git tooling.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a Client. A missing token is not an error here: operations
// that need credentials fail with ErrNotConfigured when invoked.
func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}
	if cfg.CloneTimeout <= 0 {
		cfg.CloneTimeout = 2 * time.Minute
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Configured reports whether API credentials are present.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.Token) != ""
}

// GetBranchSHA resolves a branch ref to its head commit hash.
func (c *Client) GetBranchSHA(ctx context.Context, fullName, branch string) (string, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return "", err
	}

	var payload struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}

	endpoint := fmt.Sprintf("/repos/%s/%s/git/ref/heads/%s", owner, repo, branch)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s@%s", ErrRefNotFound, fullName, branch)
		}
		return "", err
	}

	return payload.Object.SHA, nil
}

// CompareCommits returns the file-level diff between base...head within one
// repository. A 404 from the compare endpoint yields ErrCompareNotFound.
func (c *Client) CompareCommits(ctx context.Context, fullName, base, head string) (*Comparison, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Status       string `json:"status"`
		AheadBy      int    `json:"ahead_by"`
		BehindBy     int    `json:"behind_by"`
		TotalCommits int    `json:"total_commits"`
		Files        []struct {
			Filename  string `json:"filename"`
			Additions int    `json:"additions"`
			Deletions int    `json:"deletions"`
			Changes   int    `json:"changes"`
			Status    string `json:"status"`
			Patch     string `json:"patch"`
		} `json:"files"`
	}

	endpoint := fmt.Sprintf("/repos/%s/%s/compare/%s...%s", owner, repo, base, head)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s %s...%s", ErrCompareNotFound, fullName, base, head)
		}
		return nil, err
	}

	comparison := &Comparison{
		Status:       payload.Status,
		AheadBy:      payload.AheadBy,
		BehindBy:     payload.BehindBy,
		TotalCommits: payload.TotalCommits,
		Files:        make([]DiffFile, 0, len(payload.Files)),
	}
	for _, f := range payload.Files {
		comparison.Files = append(comparison.Files, DiffFile{
			Filename:  f.Filename,
			Additions: f.Additions,
			Deletions: f.Deletions,
			Changes:   f.Changes,
			Status:    f.Status,
			Patch:     f.Patch,
		})
	}

	return comparison, nil
}

// maxCommitPage caps the commit listing; resume-from-commit paging is not
// supported upstream and deliberately not implemented here.
const maxCommitPage = 50

// ListCommits returns commit metadata for a branch, newest first.
func (c *Client) ListCommits(ctx context.Context, fullName, branch string) ([]Commit, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return nil, err
	}

	var payload []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Author struct {
				Name  string    `json:"name"`
				Email string    `json:"email"`
				Date  time.Time `json:"date"`
			} `json:"author"`
			Message string `json:"message"`
		} `json:"commit"`
	}

	endpoint := fmt.Sprintf("/repos/%s/%s/commits?sha=%s&per_page=%d", owner, repo, branch, maxCommitPage)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(payload))
	for _, entry := range payload {
		commits = append(commits, Commit{
			SHA:         entry.SHA,
			AuthorName:  entry.Commit.Author.Name,
			AuthorEmail: entry.Commit.Author.Email,
			Date:        entry.Commit.Author.Date,
			Message:     entry.Commit.Message,
		})
	}
	return commits, nil
}

// SetDefaultBranch patches the repository default branch. Newly created empty
// repositories have no default until a branch is pushed, so this runs after
// the initial push.
func (c *Client) SetDefaultBranch(ctx context.Context, fullName, branch string) error {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return err
	}

	body := map[string]any{"default_branch": branch}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/repos/%s/%s", owner, repo), body, nil)
}

// SetVisibility updates repository visibility; private hides the repository.
func (c *Client) SetVisibility(ctx context.Context, fullName string, private bool) error {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return err
	}

	body := map[string]any{"private": private}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/repos/%s/%s", owner, repo), body, nil)
}

// createRepo creates a bare private repository under the target owner,
// falling back from the organization endpoint to the user endpoint when the
// owner turns out to be a personal account.
func (c *Client) createRepo(ctx context.Context, name, description string) (string, error) {
	body := map[string]any{
		"name":         name,
		"private":      true,
		"auto_init":    false,
		"has_issues":   false,
		"has_projects": false,
		"has_wiki":     false,
		"description":  description,
	}

	var created struct {
		FullName string `json:"full_name"`
	}

	orgEndpoint := fmt.Sprintf("/orgs/%s/repos", c.cfg.TargetOwner)
	err := c.do(ctx, http.MethodPost, orgEndpoint, body, &created)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			return "", err
		}
		// Target owner is a user, not an organization.
		if err := c.do(ctx, http.MethodPost, "/user/repos", body, &created); err != nil {
			return "", err
		}
	}

	return created.FullName, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("github: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github: decode response: %w", err)
	}
	return nil
}
