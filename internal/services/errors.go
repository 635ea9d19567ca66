package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrAssessmentNotFound indicates no assessment matches the identifier.
	ErrAssessmentNotFound = errors.New("assessment: not found")
	// ErrInviteNotFound indicates no invite matches the slug or identifier.
	ErrInviteNotFound = errors.New("invite: not found")
	// ErrCandidateRepoNotFound indicates the invite has no provisioned repository.
	ErrCandidateRepoNotFound = errors.New("invite: candidate repo not found")
	// ErrCommentNotFound indicates the referenced comment does not exist.
	ErrCommentNotFound = errors.New("review: comment not found")
	// ErrInvalidSeedRepoURL indicates the seed URL is not a recognised GitHub repository.
	ErrInvalidSeedRepoURL = errors.New("assessment: invalid seed repo URL")

	// ErrInviteAlreadyStarted signals a start attempt on a non-pending invite.
	ErrInviteAlreadyStarted = errors.New("invite: already started or submitted")
	// ErrInviteNotStarted signals a submit attempt on an invite that is not in progress.
	ErrInviteNotStarted = errors.New("invite: not in progress")
	// ErrStartDeadlinePassed is returned after the expiry has been durably recorded.
	ErrStartDeadlinePassed = errors.New("invite: start deadline has passed")

	// ErrProvisionFailed wraps hosting API or git tooling failures during
	// candidate repository creation.
	ErrProvisionFailed = errors.New("provision: upstream failure")
	// ErrDiffUnavailable wraps hosting API failures on the diff read path.
	ErrDiffUnavailable = errors.New("review: diff unavailable")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "constraint")
}
