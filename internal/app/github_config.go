package app

import "github.com/hireloop/takehome/internal/github"

// ClientConfig converts GitHubConfig to the github package representation.
func (c GitHubConfig) ClientConfig() github.Config {
	return github.Config{
		APIBaseURL:     c.APIBaseURL,
		Token:          c.Token,
		TargetOwner:    c.TargetOwner,
		RequestTimeout: c.RequestTimeout,
		CloneTimeout:   c.CloneTimeout,
		ScratchDir:     c.ScratchDir,
	}
}
