package cli

import (
	"context"
	"errors"
	"fmt"

	gs "github.com/dmitrijs2005/workly/internal/server/grpc"
)

// getSimpleText and getPassword are indirections swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotLoggedIn = errors.New("not logged in")

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// Register prompts for name, email and password and creates an account.
// It does not log the user in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.api.Register(ctx, &gs.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Registered %s, you can log in now", user.Email))
	return nil
}

// Login prompts for credentials and keeps the returned session tokens.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	s, err := a.api.Login(ctx, &gs.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	a.setSession(s)
	printlnFn(fmt.Sprintf("Welcome, %s!", s.Name))
	return nil
}

// Refresh exchanges the current refresh token for a new session.
func (a *App) Refresh(ctx context.Context) error {
	if a.refreshToken == "" {
		return errNotLoggedIn
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	s, err := a.api.Refresh(ctx, &gs.RefreshRequest{RefreshToken: a.refreshToken})
	if err != nil {
		a.clearSession()
		return err
	}

	a.setSession(s)
	printlnFn("Session refreshed")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.api.GetProfile(gs.WithAccessToken(ctx, a.accessToken))
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("%s <%s> %s id=%s", u.Name, u.Email, u.Role, u.ID))
	return nil
}

// Logout revokes the current refresh token, or every session of the user
// when all is set, and forgets the local tokens.
func (a *App) Logout(ctx context.Context, all bool) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	_, err := a.api.Logout(gs.WithAccessToken(ctx, a.accessToken), &gs.LogoutRequest{RefreshToken: a.refreshToken, All: all})
	a.clearSession()
	if err != nil {
		return err
	}

	printlnFn("Logged out")
	return nil
}

func (a *App) setSession(s *gs.SessionResponse) {
	a.userName = s.Name
	a.accessToken = s.AccessToken
	a.refreshToken = s.RefreshToken
}

func (a *App) clearSession() {
	a.userName = ""
	a.accessToken = ""
	a.refreshToken = ""
}
