package github

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	httpsRepoPattern = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/.]+)(?:\.git)?/?$`)
	sshRepoPattern   = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/.]+)(?:\.git)?$`)
	bareRepoPattern  = regexp.MustCompile(`^[^/\s]+/[^/\s]+$`)
)

// ErrInvalidRepoURL indicates the seed repository URL is not a recognised form.
var ErrInvalidRepoURL = fmt.Errorf("github: unsupported repository URL format")

// ParseRepoFullName normalises HTTPS, SSH, and bare owner/name repository
// references to "owner/name".
func ParseRepoFullName(repoURL string) (string, error) {
	repoURL = strings.TrimSpace(repoURL)

	if m := httpsRepoPattern.FindStringSubmatch(repoURL); m != nil {
		return m[1] + "/" + m[2], nil
	}
	if m := sshRepoPattern.FindStringSubmatch(repoURL); m != nil {
		return m[1] + "/" + m[2], nil
	}
	if bareRepoPattern.MatchString(repoURL) {
		return repoURL, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidRepoURL, repoURL)
}

func splitFullName(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepoURL, fullName)
	}
	return parts[0], parts[1], nil
}
