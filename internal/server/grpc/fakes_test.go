package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/server/auth"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/dmitrijs2005/workly/internal/server/services"
)

var testTokens = auth.NewTokenManager("secret", "workly-api", 15*time.Minute)

var testUser = &models.User{ID: "u-1", Name: "Ana", Email: "ana@x.io", Role: models.RoleUser}

type logoutCall struct {
	userID string
	token  string
	all    bool
}

type fakeSessions struct {
	regErr     error
	loginErr   error
	refreshErr error
	logoutErr  error

	logouts []logoutCall
}

func (f *fakeSessions) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &models.User{ID: "u-new", Name: in.Name, Email: in.Email, Role: models.RoleUser}, nil
}

func (f *fakeSessions) session() (*services.Session, error) {
	access, exp, err := testTokens.Issue(testUser.ID, testUser.Email, testUser.Role)
	if err != nil {
		return nil, err
	}
	return &services.Session{AccessToken: access, AccessExpiresAt: exp, RefreshToken: "rt", Name: testUser.Name, UserID: testUser.ID, Role: testUser.Role}, nil
}

func (f *fakeSessions) Login(context.Context, string, string) (*services.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.session()
}

func (f *fakeSessions) Refresh(context.Context, string) (*services.Session, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.session()
}

func (f *fakeSessions) Logout(_ context.Context, userID, token string, all bool) error {
	f.logouts = append(f.logouts, logoutCall{userID: userID, token: token, all: all})
	return f.logoutErr
}

func (f *fakeSessions) Authenticate(token string) (*auth.Claims, error) {
	return testTokens.Verify(token)
}

type fakeProfiles struct {
	err error
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if userID != testUser.ID {
		return nil, common.ErrUserNotFound
	}
	return testUser, nil
}
