package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/dbx"
	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/dmitrijs2005/workly/internal/server/auth"
	"github.com/dmitrijs2005/workly/internal/server/metrics"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/dmitrijs2005/workly/internal/server/repositories/repomanager"
)

// UserService manages an authenticated user's own account. Every method
// takes the acting user's id explicitly.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	metrics     *metrics.AuthMetrics
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher, am *metrics.AuthMetrics, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		metrics:     am,
		logger:      l.With("module", "users"),
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes name and email. An email owned by another account
// fails with ErrEmailTaken.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if email != user.Email {
		exists, err := s.repomanager.Users(s.db).ExistsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("error checking email: %w", err)
		}
		if exists {
			return nil, common.ErrEmailTaken
		}
	}

	user.Name = name
	user.Email = email
	updated, err := s.repomanager.Users(s.db).Update(ctx, user)
	if err != nil {
		return nil, mapUserUpdateErr(err)
	}
	return updated, nil
}

// ChangePassword replaces the password after verifying the current one and
// revokes every refresh token of the user in the same transaction.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) (*models.User, error) {
	if err := validatePassword(next); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	var revoked int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var txErr error
		if user, txErr = s.repomanager.Users(tx).Update(ctx, user); txErr != nil {
			return mapUserUpdateErr(txErr)
		}
		if revoked, txErr = s.repomanager.RefreshTokens(tx).DeleteAllForUser(ctx, userID); txErr != nil {
			return fmt.Errorf("error revoking refresh tokens: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Revoked(revoked)
	s.logger.Info(ctx, "password changed", "user_id", userID, "revoked", revoked)
	return user, nil
}

// ForceLogout revokes every refresh token of another user. Callers must
// hold the admin capability.
func (s *UserService) ForceLogout(ctx context.Context, userID string) (int64, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return 0, err
	}
	n, err := s.repomanager.RefreshTokens(s.db).DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	s.metrics.Revoked(n)
	s.logger.Warn(ctx, "sessions revoked by admin", "user_id", userID, "revoked", n)
	return n, nil
}

func mapUserUpdateErr(err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrUserNotFound
	case errors.Is(err, common.ErrorConflict):
		return common.ErrEmailTaken
	default:
		return fmt.Errorf("error updating user: %w", err)
	}
}
