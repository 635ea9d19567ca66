package services

import (
	"context"

	"github.com/hireloop/takehome/internal/github"
)

// RepoProvisioner abstracts the Git hosting provider so lifecycle and review
// services can be exercised against a fake in tests. *github.Client satisfies it.
type RepoProvisioner interface {
	GetBranchSHA(ctx context.Context, fullName, branch string) (string, error)
	CreateCandidateRepo(ctx context.Context, seedFullName string) (*github.ProvisionResult, error)
	CompareCommits(ctx context.Context, fullName, base, head string) (*github.Comparison, error)
	ListCommits(ctx context.Context, fullName, branch string) ([]github.Commit, error)
}

var _ RepoProvisioner = (*github.Client)(nil)
