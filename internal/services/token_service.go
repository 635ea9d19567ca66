package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hireloop/takehome/internal/models"
	"github.com/hireloop/takehome/pkg/crypto"
	"github.com/hireloop/takehome/pkg/metrics"
)

const defaultRepoTokenBytes = 32

// TokenOption customises TokenService behaviour.
type TokenOption func(*TokenService)

// WithTokenLength adjusts the random token length in bytes.
func WithTokenLength(size int) TokenOption {
	return func(s *TokenService) {
		if size > 0 {
			s.tokenLength = size
		}
	}
}

// WithTokenClock injects a custom clock primarily for testing.
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(s *TokenService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// TokenService mints and revokes short-lived clone credentials for candidate
// repositories. Only SHA-256 digests are persisted; plaintext leaves this
// service exactly once, at issuance.
type TokenService struct {
	db          *gorm.DB
	tokenLength int
	now         func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(db *gorm.DB, opts ...TokenOption) (*TokenService, error) {
	if db == nil {
		return nil, errors.New("token service: db is required")
	}

	service := &TokenService{
		db:          db,
		tokenLength: defaultRepoTokenBytes,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Issue mints a fresh token for the repository and returns the plaintext. The
// stored row carries only the digest and the expiry.
func (s *TokenService) Issue(ctx context.Context, repoID string, expiresAt time.Time) (*models.RepoAccessToken, string, error) {
	return s.issue(s.db.WithContext(ctx), repoID, expiresAt)
}

// IssueTx is Issue running inside an existing transaction.
func (s *TokenService) IssueTx(tx *gorm.DB, repoID string, expiresAt time.Time) (*models.RepoAccessToken, string, error) {
	return s.issue(tx, repoID, expiresAt)
}

func (s *TokenService) issue(tx *gorm.DB, repoID string, expiresAt time.Time) (*models.RepoAccessToken, string, error) {
	plaintext, err := crypto.GenerateToken(s.tokenLength)
	if err != nil {
		return nil, "", fmt.Errorf("token service: generate token: %w", err)
	}

	token := models.RepoAccessToken{
		CandidateRepoID: repoID,
		TokenHash:       crypto.HashToken(plaintext),
		ExpiresAt:       expiresAt.UTC(),
	}
	if err := tx.Create(&token).Error; err != nil {
		return nil, "", fmt.Errorf("token service: create token: %w", err)
	}

	metrics.TokensIssued.Inc()
	return &token, plaintext, nil
}

// RevokeAll stamps every unrevoked token for the repository as revoked now.
// Idempotent; rows are never deleted here.
func (s *TokenService) RevokeAll(ctx context.Context, repoID string) (int64, error) {
	return s.revokeAll(s.db.WithContext(ctx), repoID)
}

// RevokeAllTx is RevokeAll running inside an existing transaction.
func (s *TokenService) RevokeAllTx(tx *gorm.DB, repoID string) (int64, error) {
	return s.revokeAll(tx, repoID)
}

func (s *TokenService) revokeAll(tx *gorm.DB, repoID string) (int64, error) {
	now := s.now().UTC()
	result := tx.Model(&models.RepoAccessToken{}).
		Where("candidate_repo_id = ? AND revoked_at IS NULL", repoID).
		Update("revoked_at", now)
	if result.Error != nil {
		return 0, fmt.Errorf("token service: revoke tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Validate reports whether the plaintext matches the most recently issued
// unrevoked token for the repository and that token is unexpired. Older
// unrevoked tokens never authorize.
func (s *TokenService) Validate(ctx context.Context, repoID, plaintext string) (bool, error) {
	var token models.RepoAccessToken
	err := s.db.WithContext(ctx).
		Where("candidate_repo_id = ? AND revoked_at IS NULL", repoID).
		Order("created_at DESC").
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("token service: load token: %w", err)
	}

	if !token.Valid(s.now().UTC()) {
		return false, nil
	}
	return crypto.VerifyTokenHash(token.TokenHash, plaintext), nil
}
