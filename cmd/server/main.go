// Command server runs the hypot HTTP API.
//
// Configuration comes from defaults, an optional YAML file (--config or
// HYPOT_CONFIG), the environment and flags; see internal/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/sakif/hypot/internal/config"
	"github.com/sakif/hypot/internal/logging"
	"github.com/sakif/hypot/internal/repository"
	"github.com/sakif/hypot/internal/repository/mongostore"
	"github.com/sakif/hypot/internal/repository/sqlstore"
	"github.com/sakif/hypot/internal/server"
)

const openTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	store, err := openStore(cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("driver", cfg.Store.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(*cfg, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func openStore(cfg config.StoreConfig, logger *slog.Logger) (repository.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	switch cfg.Driver {
	case config.DriverMongo:
		return mongostore.Open(ctx, cfg.DSN, cfg.Database, logger.With(slog.String("component", "mongostore")))

	case config.DriverSQLite:
		if cfg.DSN != ":memory:" {
			dir := filepath.Dir(cfg.DSN)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		return sqlstore.Open(ctx, cfg.Driver, cfg.DSN)

	default:
		return sqlstore.Open(ctx, cfg.Driver, cfg.DSN)
	}
}
