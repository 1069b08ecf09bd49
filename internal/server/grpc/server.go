package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/dmitrijs2005/workly/internal/server/auth"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/dmitrijs2005/workly/internal/server/services"
	"google.golang.org/grpc"
)

// Sessions is the part of the session service exposed over gRPC.
type Sessions interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	Logout(ctx context.Context, userID, refreshToken string, all bool) error
	Authenticate(accessToken string) (*auth.Claims, error)
}

// Profiles is the part of the user service exposed over gRPC.
type Profiles interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
}

type GRPCServer struct {
	address  string
	sessions Sessions
	profiles Profiles
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, ss Sessions, ps Profiles) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: ss,
		profiles: ps,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv.RegisterService(&AuthServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
