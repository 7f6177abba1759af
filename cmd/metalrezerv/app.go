package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nkiryanov/metalrezerv/internal/db"
	"github.com/nkiryanov/metalrezerv/internal/handlers"
	"github.com/nkiryanov/metalrezerv/internal/handlers/middleware"
	"github.com/nkiryanov/metalrezerv/internal/lock"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/redis"
	"github.com/nkiryanov/metalrezerv/internal/repository/postgres"
	"github.com/nkiryanov/metalrezerv/internal/service/admission"
	"github.com/nkiryanov/metalrezerv/internal/service/auth"
	"github.com/nkiryanov/metalrezerv/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/metalrezerv/internal/service/company"
	"github.com/nkiryanov/metalrezerv/internal/service/ledger"
	"github.com/nkiryanov/metalrezerv/internal/service/listing"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepLockExpiry = 30 * time.Second
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	sweeper *listing.Sweeper
	logger  logger.Logger
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: l}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	// Redis is optional, limits and locks stay in process without it
	var redisClient goredis.UniversalClient
	if c.RedisURL != "" {
		client, err := redis.Connect(ctx, c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		redisClient = client
	}

	services, err := newServices(c, pool, redisClient, l)
	if err != nil {
		return nil, err
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, sweepLockExpiry, l)
	}

	app.Handler = handlers.NewRouter(services, l)
	app.sweeper = listing.NewSweeper(c.SweepInterval, postgres.NewStorage(pool).Listing(), locker, l)

	return app, nil
}

func newServices(c *Config, pool *pgxpool.Pool, redisClient goredis.UniversalClient, l logger.Logger) (handlers.Services, error) {
	storage := postgres.NewStorage(pool)

	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey})
	if err != nil {
		return handlers.Services{}, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
	if err != nil {
		return handlers.Services{}, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	responseLimiter, err := middleware.NewLimiter(c.ResponseRateLimit, redisClient)
	if err != nil {
		return handlers.Services{}, err
	}

	ledgerService := ledger.NewService(storage, l)

	return handlers.Services{
		Auth:            authService,
		Ledger:          ledgerService,
		Admission:       admission.NewController(storage, ledgerService, l),
		Company:         company.NewService(storage, l),
		Listing:         listing.NewService(storage, l),
		Activity:        storage.Activity(),
		ResponseLimiter: responseLimiter,
	}, nil
}

// Run starts http server and listing sweeper, closes them gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.Close()

	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.sweeper.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	return err
}

// Close releases database and redis connections, in reverse order
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
