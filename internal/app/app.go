// Package app wires the configured store, use cases and HTTP router together
// and runs the server until the context is canceled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/link-shortener/internal/config"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
	"github.com/vadimbarashkov/link-shortener/internal/usecase"
	"github.com/vadimbarashkov/link-shortener/migrations"
	"github.com/vadimbarashkov/link-shortener/pkg/postgres"
	"github.com/vadimbarashkov/link-shortener/pkg/sqlite"
	"golang.org/x/sync/errgroup"

	deliveryhttp "github.com/vadimbarashkov/link-shortener/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/link-shortener/internal/adapter/repository/postgres"
	sqliterepo "github.com/vadimbarashkov/link-shortener/internal/adapter/repository/sqlite"
)

const serviceName = "link-shortener"

type linkStore interface {
	Save(ctx context.Context, code, targetURL string, createdAt time.Time) (*entity.Link, error)
	RetrieveAll(ctx context.Context) ([]*entity.Link, error)
	RetrieveByCode(ctx context.Context, code string) (*entity.Link, error)
	RecordClick(ctx context.Context, code string, clickedAt time.Time) (*entity.Link, error)
	Remove(ctx context.Context, code string) error
	Ping(ctx context.Context) error
}

func Run(ctx context.Context, cfg *config.Config, version string) error {
	const op = "app.Run"

	logger := NewLogger(cfg, version)

	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	logger.Info("storage is ready", slog.String("driver", cfg.Storage.Driver))

	linkUseCase := usecase.NewLinkUseCase(store)

	r := deliveryhttp.NewRouter(logger, linkUseCase, store, deliveryhttp.Options{
		BaseURL:        cfg.BaseURL,
		Version:        version,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// openStore connects to the configured database, brings its schema up to date
// and returns the link repository backed by it.
func openStore(ctx context.Context, cfg *config.Config) (*sqlx.DB, linkStore, error) {
	const op = "app.openStore"

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn := cfg.Postgres.DSN()

		if err := postgres.RunMigrations(migrations.FS, migrations.PostgresDir, dsn); err != nil {
			return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		db, err := postgres.New(
			ctx,
			dsn,
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		return db, pgrepo.NewLinkRepository(db), nil
	case config.DriverSQLite:
		db, err := sqlite.New(ctx, cfg.SQLite.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		if err := sqlite.RunMigrations(db, migrations.FS, migrations.SQLiteDir); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		return db, sqliterepo.NewLinkRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("%s: %w: %q", op, config.ErrUnknownDriver, cfg.Storage.Driver)
	}
}

// NewLogger builds the service logger. Production always logs JSON.
func NewLogger(cfg *config.Config, version string) *httplog.Logger {
	return httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:       parseLevel(cfg.Log.Level),
		JSON:           cfg.Log.JSON || cfg.Env == config.EnvProd,
		Concise:        cfg.Env == config.EnvDev,
		RequestHeaders: cfg.Env != config.EnvProd,
		Tags: map[string]string{
			"version": version,
			"env":     cfg.Env,
		},
		QuietDownRoutes: []string{"/healthz"},
		QuietDownPeriod: 10 * time.Second,
	})
}

func parseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
