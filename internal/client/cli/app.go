// Package cli implements an interactive workly client that talks to the
// server's gRPC AuthService.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/workly/internal/client/config"
	gs "github.com/dmitrijs2005/workly/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// authAPI is satisfied by *gs.AuthClient.
type authAPI interface {
	Register(ctx context.Context, in *gs.RegisterRequest) (*gs.UserResponse, error)
	Login(ctx context.Context, in *gs.LoginRequest) (*gs.SessionResponse, error)
	Refresh(ctx context.Context, in *gs.RefreshRequest) (*gs.SessionResponse, error)
	Logout(ctx context.Context, in *gs.LogoutRequest) (*gs.Empty, error)
	GetProfile(ctx context.Context) (*gs.UserResponse, error)
}

type App struct {
	config *config.Config
	api    authAPI
	conn   io.Closer
	reader *bufio.Reader
	out    io.Writer

	userName     string
	accessToken  string
	refreshToken string
}

func NewApp(c *config.Config) (*App, error) {
	conn, err := grpc.NewClient(c.ServerEndpointAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", c.ServerEndpointAddr, err)
	}

	return &App{
		config: c,
		api:    gs.NewAuthClient(conn),
		conn:   conn,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.accessToken != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to workly CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)

	if a.conn != nil {
		_ = a.conn.Close()
	}
}
