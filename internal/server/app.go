// Package server wires the workly server together: storage, services and
// the REST and gRPC transports, with graceful shutdown on SIGINT, SIGTERM
// and SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/dmitrijs2005/workly/internal/server/auth"
	"github.com/dmitrijs2005/workly/internal/server/config"
	"github.com/dmitrijs2005/workly/internal/server/metrics"
	"github.com/dmitrijs2005/workly/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/workly/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/workly/internal/server/rest"
	"github.com/dmitrijs2005/workly/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/workly/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	registry *prometheus.Registry
	sessions *services.SessionService
	users    *services.UserService
	contract *services.ContractService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	var opts []repomanager.Option
	if c.RefreshTokenStore == config.StoreRedis {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			app.close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		opts = append(opts, repomanager.WithRefreshTokenStore(
			refreshtokens.NewRedisRepository(app.redis, refreshtokens.DefaultRedisRetention)))
	}

	rm := repomanager.NewPostgresRepositoryManager(opts...)
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, err
	}

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	am := metrics.NewAuthMetrics(app.registry)

	hasher := auth.NewPasswordHasher(c.PasswordHashCost)
	tokens := auth.NewTokenManager(c.SecretKey, c.TokenIssuer, c.AccessTokenValidityDuration)
	refresh := services.NewRefreshTokenService(db, rm, c.RefreshTokenValidityDuration, logger)

	app.sessions = services.NewSessionService(db, rm, hasher, tokens, refresh, am, logger)
	app.users = services.NewUserService(db, rm, hasher, am, logger)
	app.contract = services.NewContractService(db, rm)

	logger.Info(ctx, "App initialized", "refresh_token_store", c.RefreshTokenStore)
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.sessions, app.users)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := rest.NewHandler(app.sessions, app.users, app.contract, app.logger)
	s := rest.NewServer(app.config.EndpointAddrHTTP, h, app.registry, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run serves both APIs until ctx is cancelled, a signal arrives or either
// server fails, then releases storage connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(context.Background(), "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
}
