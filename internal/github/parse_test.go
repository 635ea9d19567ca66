package github

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRepoFullName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"https", "https://github.com/acme/seed-repo", "acme/seed-repo"},
		{"https with .git", "https://github.com/acme/seed-repo.git", "acme/seed-repo"},
		{"https trailing slash", "https://github.com/acme/seed-repo/", "acme/seed-repo"},
		{"http", "http://github.com/acme/seed-repo", "acme/seed-repo"},
		{"ssh", "git@github.com:acme/seed-repo", "acme/seed-repo"},
		{"ssh with .git", "git@github.com:acme/seed-repo.git", "acme/seed-repo"},
		{"bare", "acme/seed-repo", "acme/seed-repo"},
		{"surrounding whitespace", "  acme/seed-repo\n", "acme/seed-repo"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRepoFullName(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseRepoFullNameRejectsMalformed(t *testing.T) {
	for _, input := range []string{
		"",
		"not a repo",
		"https://gitlab.com/acme/seed-repo",
		"ftp://example.com/not-a-repo",
		"acme/seed/extra",
		"/leading",
		"trailing/",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseRepoFullName(input)
			require.ErrorIs(t, err, ErrInvalidRepoURL)
		})
	}
}

func TestSplitFullName(t *testing.T) {
	owner, repo, err := splitFullName("acme/seed-repo")
	require.NoError(t, err)
	require.Equal(t, "acme", owner)
	require.Equal(t, "seed-repo", repo)

	_, _, err = splitFullName("just-a-name")
	require.ErrorIs(t, err, ErrInvalidRepoURL)
}
