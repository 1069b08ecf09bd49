package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/dmitrijs2005/workly/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	user, err := s.sessions.Register(ctx, services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toUserResponse(user), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*SessionResponse, error) {
	session, err := s.sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toSessionResponse(session), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *RefreshRequest) (*SessionResponse, error) {
	session, err := s.sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toSessionResponse(session), nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *LogoutRequest) (*Empty, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	if err := s.sessions.Logout(ctx, claims.UserID(), req.RefreshToken, req.All); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, _ *GetProfileRequest) (*UserResponse, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	user, err := s.profiles.GetProfile(ctx, claims.UserID())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toUserResponse(user), nil
}

// toStatus converts a service error into a gRPC status. Internal errors
// are logged and reported without detail.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrRefreshRejected),
		errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrUserNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrEmailTaken):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func toUserResponse(u *models.User) *UserResponse {
	return &UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

func toSessionResponse(s *services.Session) *SessionResponse {
	return &SessionResponse{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, Name: s.Name}
}
