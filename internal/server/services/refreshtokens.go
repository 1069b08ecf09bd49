package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/dmitrijs2005/workly/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RefreshTokenService owns the refresh-token lifecycle:
//
//	LIVE -> consumed (rotated) | expired and deleted | revoked
//
// Tokens are single use. Consumption is delegated to the store's atomic
// compare-and-delete, so no in-process locking is needed.
type RefreshTokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	ttl         time.Duration
	now         func() time.Time
	logger      logging.Logger
}

func NewRefreshTokenService(db *sql.DB, m repomanager.RepositoryManager, ttl time.Duration, l logging.Logger) *RefreshTokenService {
	return &RefreshTokenService{
		db:          db,
		repomanager: m,
		ttl:         ttl,
		now:         time.Now,
		logger:      l.With("module", "refresh_tokens"),
	}
}

// WithClock replaces the time source used for expiry decisions.
func (s *RefreshTokenService) WithClock(now func() time.Time) *RefreshTokenService {
	s.now = now
	return s
}

// Create mints a refresh token for an existing user. The returned record
// carries the plaintext value in Token; only its hash is stored.
func (s *RefreshTokenService) Create(ctx context.Context, userID string) (*models.RefreshToken, error) {
	if _, err := s.repomanager.Users(s.db).FindByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	value, err := common.MakeRandHexString(common.RefreshTokenSize)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	now := s.now()
	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     value,
		TokenHash: common.HashToken(value),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.repomanager.RefreshTokens(s.db).Create(ctx, token); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return token, nil
}

// ValidateAndConsume removes the token and returns its owner. Unknown or
// already used values fail with ErrInvalidToken. Expired values fail with
// ErrTokenExpired; the record is gone either way, so a repeat attempt sees
// ErrInvalidToken.
func (s *RefreshTokenService) ValidateAndConsume(ctx context.Context, value string) (*models.User, error) {
	if value == "" {
		return nil, common.ErrInvalidToken
	}

	token, err := s.repomanager.RefreshTokens(s.db).Consume(ctx, common.HashToken(value))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error consuming refresh token: %w", err)
	}

	if token.Expired(s.now()) {
		s.logger.Info(ctx, "expired refresh token removed", "user_id", token.UserID, "expired_at", token.ExpiresAt)
		return nil, common.ErrTokenExpired
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

// Revoke deletes a single token. Unknown values are ignored.
func (s *RefreshTokenService) Revoke(ctx context.Context, value string) error {
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, common.HashToken(value)); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

// RevokeAll deletes every token of userID and reports how many were live
// or awaiting cleanup.
func (s *RefreshTokenService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	return n, nil
}
