package rest

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 5 * time.Second

// NewApp builds the fiber application with error rendering, request
// logging and every route registered.
func NewApp(h *Handler, g prometheus.Gatherer, l logging.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "workly",
		DisableStartupMessage: true,
		ErrorHandler:          newErrorHandler(l),
	})
	app.Use(RequestLogging(l))
	RegisterRoutes(app, h, g)
	return app
}

type Server struct {
	address string
	app     *fiber.App
	logger  logging.Logger
}

func NewServer(address string, h *Handler, g prometheus.Gatherer, l logging.Logger) *Server {
	l = l.With("module", "http_server")
	return &Server{address: address, app: NewApp(h, g, l), logger: l}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	return s.app.Listener(listen)
}
