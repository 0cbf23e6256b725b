package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kozaktomas/biomatch/internal/config"
	"github.com/kozaktomas/biomatch/internal/database"
	"github.com/kozaktomas/biomatch/internal/database/jsonfile"
	"github.com/kozaktomas/biomatch/internal/database/mariadb"
	"github.com/kozaktomas/biomatch/internal/database/objectstore"
	"github.com/kozaktomas/biomatch/internal/database/postgres"
	"github.com/kozaktomas/biomatch/internal/database/sqlite"
	"github.com/kozaktomas/biomatch/internal/logging"
	"github.com/kozaktomas/biomatch/internal/matching"
)

// loadConfig loads and validates configuration, applying the --storage override.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if storageOverride != "" {
		cfg.Storage.Backend = storageOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openBackend connects to the storage backend selected in cfg.
func openBackend(ctx context.Context, cfg *config.Config) (database.Backend, error) {
	switch cfg.Storage.Backend {
	case config.StorageFile:
		return jsonfile.New(cfg.Storage.DataFile)
	case config.StorageSQLite:
		return sqlite.Open(ctx, cfg.Storage.SQLitePath)
	case config.StoragePostgres:
		return postgres.Open(ctx, &cfg.Database)
	case config.StorageMariaDB:
		return mariadb.Open(ctx, cfg.MariaDB.DSN)
	case config.StorageS3:
		return objectstore.New(ctx, &cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// app bundles what every command needs: the service and the resources to release.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *matching.Service
	backend database.Backend
	closers []io.Closer
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("closing storage backend", "error", err)
	}
	for _, c := range a.closers {
		c.Close()
	}
}

// openApp loads configuration, opens storage and builds the matching service.
// recorder may be nil.
func openApp(ctx context.Context, recorder matching.Recorder) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.NewFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(logger)

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	store, err := matching.LoadStore(ctx, backend)
	if err != nil {
		backend.Close()
		logCloser.Close()
		return nil, fmt.Errorf("failed to load enrollments from %s: %w", backend.Name(), err)
	}
	logger.Debug("store loaded", "backend", backend.Name(), "enrollments", store.Len())

	service, err := matching.NewService(store, matching.Options{
		MatchThreshold:     cfg.Matching.MatchThreshold,
		DuplicateThreshold: cfg.Matching.DuplicateThreshold,
		Logger:             logger,
		Recorder:           recorder,
	})
	if err != nil {
		backend.Close()
		logCloser.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		service: service,
		backend: backend,
		closers: []io.Closer{logCloser},
	}, nil
}
