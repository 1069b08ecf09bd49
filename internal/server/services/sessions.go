// Package services contains the server business logic: the session
// lifecycle (register, login, refresh, logout), user profiles and contracts.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/dmitrijs2005/workly/internal/server/auth"
	"github.com/dmitrijs2005/workly/internal/server/metrics"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/dmitrijs2005/workly/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Session is what a successful login or refresh hands back to the client.
type Session struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	Name            string
	UserID          string
	Role            models.Role
}

// RegisterInput carries the fields of a new account. An empty Role means USER.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// SessionService orchestrates the session lifecycle. Only Login and Refresh
// mint tokens; Register never logs the user in.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenManager
	refresh     *RefreshTokenService
	metrics     *metrics.AuthMetrics
	logger      logging.Logger
}

func NewSessionService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	refresh *RefreshTokenService,
	am *metrics.AuthMetrics,
	l logging.Logger,
) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		refresh:     refresh,
		metrics:     am,
		logger:      l.With("module", "sessions"),
	}
}

// Register creates an account. A taken email fails with ErrEmailTaken and
// leaves the existing account untouched.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	user, err := s.register(ctx, in)
	switch {
	case err == nil:
		s.metrics.Registration(metrics.ResultSuccess)
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrEmailTaken):
		s.metrics.Registration(metrics.ResultFailure)
	default:
		s.metrics.Registration(metrics.ResultError)
	}
	return user, err
}

func (s *SessionService) register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, common.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := repo.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password are indistinguishable: both fail with ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	session, err := s.login(ctx, email, password)
	switch {
	case err == nil:
		s.metrics.Login(metrics.ResultSuccess)
	case errors.Is(err, common.ErrInvalidCredentials):
		s.metrics.Login(metrics.ResultFailure)
	default:
		s.metrics.Login(metrics.ResultError)
	}
	return session, err
}

func (s *SessionService) login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, normalizeLookup(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// Refresh exchanges a refresh token for a new session. The presented token
// is consumed; a new refresh token is always issued. Invalid or expired
// tokens fail with ErrRefreshRejected wrapping the cause.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	user, err := s.refresh.ValidateAndConsume(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			s.metrics.Refresh(metrics.ResultExpired)
			return nil, fmt.Errorf("%w: %w", common.ErrRefreshRejected, err)
		case errors.Is(err, common.ErrInvalidToken):
			s.metrics.Refresh(metrics.ResultFailure)
			return nil, fmt.Errorf("%w: %w", common.ErrRefreshRejected, err)
		default:
			s.metrics.Refresh(metrics.ResultError)
			return nil, err
		}
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		s.metrics.Refresh(metrics.ResultError)
		return nil, err
	}
	s.metrics.Refresh(metrics.ResultSuccess)
	return session, nil
}

// Logout revokes the presented refresh token, or every token of userID when
// all is set. Access tokens already issued stay valid until they expire.
func (s *SessionService) Logout(ctx context.Context, userID, refreshToken string, all bool) error {
	if all {
		n, err := s.refresh.RevokeAll(ctx, userID)
		if err != nil {
			return err
		}
		s.metrics.Revoked(n)
		s.logger.Info(ctx, "user logged out everywhere", "user_id", userID, "revoked", n)
		return nil
	}

	if refreshToken == "" {
		return fmt.Errorf("%w: refresh token is required", common.ErrValidation)
	}
	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		return err
	}
	s.metrics.Revoked(1)
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// Authenticate verifies an access token and returns its claims. Transports
// call it once per request and pass the subject on explicitly.
func (s *SessionService) Authenticate(accessToken string) (*auth.Claims, error) {
	return s.tokens.Verify(accessToken)
}

func (s *SessionService) openSession(ctx context.Context, user *models.User) (*Session, error) {
	access, exp, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}

	rt, err := s.refresh.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:     access,
		AccessExpiresAt: exp,
		RefreshToken:    rt.Token,
		Name:            user.Name,
		UserID:          user.ID,
		Role:            user.Role,
	}, nil
}

func normalizeLookup(email string) string {
	e, err := normalizeEmail(email)
	if err != nil {
		return email
	}
	return e
}
