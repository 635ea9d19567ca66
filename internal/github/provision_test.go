package github

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactURL(t *testing.T) {
	require.Equal(t,
		"https://***@github.com/acme/repo.git",
		redactURL("https://ghp_secrettoken@github.com/acme/repo.git"),
	)

	// values without credentials pass through untouched
	require.Equal(t, "checkout", redactURL("checkout"))
	require.Equal(t, "https://github.com/acme/repo", redactURL("https://github.com/acme/repo"))
}

func TestGitErrorRedactsCredentials(t *testing.T) {
	authURL := "https://ghp_secrettoken@github.com/acme/repo.git"
	gitErr := &GitError{
		Args:   redactArgs([]string{"clone", authURL, "/tmp/scratch"}),
		Output: redactToken("fatal: could not read from "+authURL, []string{"clone", authURL}),
		Err:    errors.New("exit status 128"),
	}

	require.NotContains(t, gitErr.Error(), "ghp_secrettoken")
	require.Contains(t, gitErr.Error(), "***@github.com")
}

func TestCandidateRepoName(t *testing.T) {
	first, err := candidateRepoName()
	require.NoError(t, err)
	second, err := candidateRepoName()
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(first, "candidate-"))
	require.NotEqual(t, first, second)
}

func TestCreateCandidateRepoRequiresConfiguration(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.CreateCandidateRepo(context.Background(), "acme/seed")
	require.ErrorIs(t, err, ErrNotConfigured)

	// a token without a target owner is still unusable
	client = NewClient(Config{Token: "tok"})
	_, err = client.CreateCandidateRepo(context.Background(), "acme/seed")
	require.ErrorIs(t, err, ErrNotConfigured)
}
