package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nkiryanov/minitwitter/internal/db"
	"github.com/nkiryanov/minitwitter/internal/handlers"
	"github.com/nkiryanov/minitwitter/internal/logger"
	"github.com/nkiryanov/minitwitter/internal/media"
	"github.com/nkiryanov/minitwitter/internal/metrics"
	"github.com/nkiryanov/minitwitter/internal/repository"
	"github.com/nkiryanov/minitwitter/internal/repository/postgres"
	"github.com/nkiryanov/minitwitter/internal/repository/redis"
	"github.com/nkiryanov/minitwitter/internal/service/auth"
	"github.com/nkiryanov/minitwitter/internal/service/auth/sessionmanager"
	"github.com/nkiryanov/minitwitter/internal/service/tweet"
	"github.com/nkiryanov/minitwitter/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger

	// Release connections: db pool, redis client
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, Logger: logger}
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

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	var sessionRepo repository.SessionRepo = storage.Session()
	if c.SessionStore == SessionStoreRedis {
		client := goredis.NewClient(&goredis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, func() { _ = client.Close() })

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis is not reachable. Err: %w", err)
		}
		sessionRepo = redis.NewSessionRepo(client)
	}

	// Initialize services
	sessions, err := sessionmanager.New(sessionmanager.Config{SecretKey: c.SecretKey, TTL: c.SessionTTL}, sessionRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating session manager. Err: %w", err)
	}
	userService := user.NewService(auth.DefaultHasher, storage.User())
	authService := auth.NewService(auth.Config{}, sessions, userService)
	tweetService := tweet.NewService(storage.Tweet())

	mediaStorage, err := media.New(c.MediaRoot)
	if err != nil {
		return nil, fmt.Errorf("error while preparing media root. Err: %w", err)
	}

	handler, err := handlers.NewRouter(c.MountPrefix, handlers.Services{
		Auth:    authService,
		Users:   userService,
		Tweets:  tweetService,
		Media:   mediaStorage,
		Metrics: metrics.New(),
	}, logger)
	if err != nil {
		return nil, err
	}
	app.Handler = handler

	return app, nil
}

func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
