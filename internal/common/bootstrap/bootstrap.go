package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/storybooks/internal/common/config"
	"github.com/AlibekovAA/storybooks/internal/common/constants"
	"github.com/AlibekovAA/storybooks/internal/common/db"
	commonhttp "github.com/AlibekovAA/storybooks/internal/common/http"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	storyrepo "github.com/AlibekovAA/storybooks/internal/story/repository"
	userrepo "github.com/AlibekovAA/storybooks/internal/user/repository"
)

// App holds the storage-backed dependencies shared by every handler.
type App struct {
	Config    config.StoriesConfig
	Log       *logger.Logger
	StoryRepo storyrepo.Repository
	UserRepo  userrepo.Repository
	Health    map[string]commonhttp.HealthCheck

	closers []func() error
}

func NewStoriesApp(ctx context.Context) (*App, error) {
	log, err := initializeLogger("stories")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadStoriesConfig()
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return nil, err
	}

	app := &App{Config: cfg, Log: log, Health: make(map[string]commonhttp.HealthCheck)}

	var storyRepo storyrepo.Repository
	switch cfg.DatabaseDriver {
	case constants.DriverPostgres:
		pool, err := initializePostgres(ctx, log, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() error { pool.Close(); return nil })
		app.Health["database"] = func(ctx context.Context) error { return pool.Ping(ctx) }
		storyRepo = storyrepo.NewPgRepository(pool, log)
		app.UserRepo = userrepo.NewPgRepository(pool)

	case constants.DriverSQLite:
		conn, err := initializeSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, conn.Close)
		app.Health["database"] = conn.PingContext
		storyRepo = storyrepo.NewSQLiteRepository(conn, log)
		app.UserRepo = userrepo.NewSQLiteRepository(conn)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	breaker := db.NewDBCircuitBreaker(
		"stories",
		cfg.CircuitBreakerThreshold,
		cfg.CircuitBreakerTimeout,
		cfg.CircuitBreakerReset,
		log,
	)
	app.StoryRepo = storyrepo.WithCircuitBreaker(storyRepo, breaker)

	log.Infof("stories storage ready: driver=%s", cfg.DatabaseDriver)
	return app, nil
}

// Close releases storage handles. It is safe to call once during shutdown.
func (a *App) Close(context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func initializePostgres(ctx context.Context, log *logger.Logger, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, log, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	if err := db.MigratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	return pool, nil
}

func initializeSQLite(ctx context.Context, path string) (*sql.DB, error) {
	conn, err := db.OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.MigrateSQLite(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return conn, nil
}

func initializeLogger(serviceName string) (*logger.Logger, error) {
	return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
}
