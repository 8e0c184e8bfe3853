// Package app wires configuration, storage, services and the HTTP router
// together and runs the server until the process is asked to stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/session-auth/internal/api"
	"github.com/99minutos/session-auth/internal/api/handler"
	"github.com/99minutos/session-auth/internal/core/ports"
	"github.com/99minutos/session-auth/internal/core/service"
	"github.com/99minutos/session-auth/internal/infrastructure/db/memory"
	mongodb "github.com/99minutos/session-auth/internal/infrastructure/db/mongo"
	"github.com/99minutos/session-auth/internal/infrastructure/db/postgres"
	redisdb "github.com/99minutos/session-auth/internal/infrastructure/db/redis"
	"github.com/99minutos/session-auth/internal/infrastructure/queue"
	"github.com/99minutos/session-auth/internal/pkg/config"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	echo    *echo.Echo
	pool    *queue.HashPool
	closers []func(context.Context) error
}

// store is the selected user repository plus what the readiness probe and
// shutdown need to know about it.
type store struct {
	repo   ports.UserRepository
	checks map[string]handler.HealthCheck
	close  func(context.Context) error
}

// New connects the configured storage backend and builds the router.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	pool := queue.NewHashPool(cfg.HashWorkers, cfg.SaltRounds, log)
	credentials := service.NewCredentialService(st.repo, pool, log)
	tokens := service.NewTokenService(cfg.JWTSecret, service.SessionTTL)

	e := api.NewRouter(api.Dependencies{
		Credentials: credentials,
		Tokens:      tokens,
		Cookie: handler.CookieConfig{
			Secure: cfg.CookieSecure,
			MaxAge: service.SessionTTL,
		},
		HealthChecks: st.checks,
		Log:          log,
		Registerer:   prometheus.DefaultRegisterer,
		Gatherer:     prometheus.DefaultGatherer,
	})

	app := &App{cfg: cfg, log: log, echo: e, pool: pool}
	if st.close != nil {
		app.closers = append(app.closers, st.close)
	}
	return app, nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		s, err := mongodb.Open(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return &store{
			repo:   s.Users(),
			checks: map[string]handler.HealthCheck{"mongodb": s.Ping},
			close:  s.Close,
		}, nil

	case config.BackendRedis:
		s, err := redisdb.Open(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		return &store{
			repo:   s.Users(),
			checks: map[string]handler.HealthCheck{"redis": s.Ping},
			close:  s.Close,
		}, nil

	case config.BackendPostgres:
		s, err := postgres.Open(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("connected to postgres")
		return &store{
			repo:   s.Users(),
			checks: map[string]handler.HealthCheck{"postgres": s.Ping},
			close:  s.Close,
		}, nil

	case config.BackendMemory:
		log.Warn().Msg("using in-memory user store; accounts are lost on restart")
		return &store{repo: memory.NewUserRepository()}, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The pool outlives the signal so in-flight requests can finish hashing
	// during shutdown.
	poolCtx, stopPool := context.WithCancel(context.WithoutCancel(ctx))
	defer stopPool()
	a.pool.Start(poolCtx)

	addr := fmt.Sprintf(":%d", a.cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Str("store", a.cfg.StoreBackend).Msg("server listening")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("http shutdown")
	}
	stopPool()
	for _, closeFn := range a.closers {
		if err := closeFn(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("closing store")
		}
	}

	return runErr
}
