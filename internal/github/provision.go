package github

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// GitError wraps a failed git subprocess with its captured diagnostic output.
type GitError struct {
	Args   []string
	Output string
	Err    error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s failed: %s", strings.Join(e.Args, " "), e.Output)
}

func (e *GitError) Unwrap() error { return e.Err }

// CreateCandidateRepo materialises an independent private repository owned by
// the configured target account, containing exactly the seed's main head at
// call time. The pinned commit is checked out explicitly so later seed
// commits cannot leak in even if main advances mid-operation.
func (c *Client) CreateCandidateRepo(ctx context.Context, seedFullName string) (*ProvisionResult, error) {
	if !c.Configured() || strings.TrimSpace(c.cfg.TargetOwner) == "" {
		return nil, ErrNotConfigured
	}

	pinnedSHA, err := c.GetBranchSHA(ctx, seedFullName, "main")
	if err != nil {
		return nil, err
	}

	repoName, err := candidateRepoName()
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Candidate repo from seed %s (pinned %s)", seedFullName, shortSHA(pinnedSHA))
	fullName, err := c.createRepo(ctx, repoName, description)
	if err != nil {
		return nil, err
	}

	if err := c.pushSeedAtCommit(ctx, seedFullName, fullName, pinnedSHA); err != nil {
		return nil, err
	}

	if err := c.SetDefaultBranch(ctx, fullName, "main"); err != nil {
		return nil, err
	}

	return &ProvisionResult{
		RepoFullName:  fullName,
		PinnedMainSHA: pinnedSHA,
	}, nil
}

// pushSeedAtCommit clones the seed into a scratch directory, checks out the
// pinned commit, and pushes that tree as the candidate repository's main
// branch. The scratch directory is exclusively owned by this call and removed
// on every exit path.
func (c *Client) pushSeedAtCommit(ctx context.Context, seedFullName, candidateFullName, pinnedSHA string) error {
	scratch, err := os.MkdirTemp(c.cfg.ScratchDir, "candidate-clone-")
	if err != nil {
		return fmt.Errorf("github: create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CloneTimeout)
	defer cancel()

	seedURL := c.authenticatedCloneURL(seedFullName)
	candidateURL := c.authenticatedCloneURL(candidateFullName)

	// Full-history clone so the pinned commit is guaranteed present.
	steps := [][]string{
		{"clone", seedURL, scratch},
		{"-C", scratch, "checkout", pinnedSHA},
		{"-C", scratch, "remote", "add", "candidate", candidateURL},
		{"-C", scratch, "push", "-u", "candidate", "HEAD:refs/heads/main"},
	}

	for _, args := range steps {
		if err := runGit(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

func runGit(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return &GitError{
			Args:   redactArgs(args),
			Output: strings.TrimSpace(redactToken(string(output), args)),
			Err:    err,
		}
	}
	return nil
}

func (c *Client) authenticatedCloneURL(fullName string) string {
	return fmt.Sprintf("https://%s@github.com/%s.git", c.cfg.Token, fullName)
}

// redactArgs strips embedded credentials so they never reach logs or errors.
func redactArgs(args []string) []string {
	redacted := make([]string, len(args))
	for i, arg := range args {
		redacted[i] = redactURL(arg)
	}
	return redacted
}

func redactToken(output string, args []string) string {
	for _, arg := range args {
		if strings.Contains(arg, "@github.com") {
			output = strings.ReplaceAll(output, arg, redactURL(arg))
		}
	}
	return output
}

func redactURL(value string) string {
	start := strings.Index(value, "https://")
	at := strings.Index(value, "@github.com")
	if start == -1 || at == -1 || at < start {
		return value
	}
	return value[:start+len("https://")] + "***" + value[at:]
}

func candidateRepoName() (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("github: generate repo name: %w", err)
	}
	return fmt.Sprintf("candidate-%d-%s", time.Now().Unix(), hex.EncodeToString(suffix)), nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
