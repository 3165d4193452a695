package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/model-orchestrator/config"
	"github.com/upb/model-orchestrator/repositories"
	"github.com/upb/model-orchestrator/repositories/postgres"
	"github.com/upb/model-orchestrator/services/catalog"
	"github.com/upb/model-orchestrator/services/cost"
	"github.com/upb/model-orchestrator/services/dispatch"
	"github.com/upb/model-orchestrator/services/orchestrator"
	"github.com/upb/model-orchestrator/services/selector"
	"github.com/upb/model-orchestrator/services/usage"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// UsageRepo is set only when a database sink is configured; it backs
	// both the recorder and the usage read endpoints
	UsageRepo repositories.UsageRepository

	// Core services
	Catalog      *catalog.Catalog
	Selector     *selector.Selector
	Estimator    *cost.Estimator
	Dispatcher   *dispatch.Dispatcher
	Recorder     *usage.Recorder
	Orchestrator *orchestrator.Service
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initCatalog(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	deps.initServices(cfg)

	if err := deps.Recorder.Start(); err != nil {
		return nil, fmt.Errorf("failed to start usage recorder: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.Int("catalog_providers", deps.Catalog.Len()),
		zap.Bool("database_sink", deps.DB != nil))
	return deps, nil
}

// initDatabase connects the usage sink database when one is configured.
// No database means the recorder falls back to the log sink.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Info("no database configured, usage records go to the log sink")
		return nil
	}

	db, err := postgres.NewDB(*cfg.Database, d.Logger)
	if err != nil {
		return err
	}

	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return err
	}

	d.DB = db
	return nil
}

// initCatalog loads the provider catalog from CATALOG_PATH or the built-in default
func (d *Dependencies) initCatalog(cfg *config.Config) error {
	if cfg.Catalog.Path != "" {
		cat, err := catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		d.Catalog = cat
		d.Logger.Info("catalog loaded from file",
			zap.String("path", cfg.Catalog.Path),
			zap.Int("providers", cat.Len()))
		return nil
	}

	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	d.Catalog = cat
	d.Logger.Info("using built-in default catalog", zap.Int("providers", cat.Len()))
	return nil
}

// initServices wires the selection, dispatch and recording pipeline
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Selector = selector.New(selector.Config{
		CostCap: cfg.Orchestrator.CostCap,
	})

	d.Estimator = cost.New()

	d.Dispatcher = dispatch.NewDispatcher(
		dispatch.NewHTTPClient(),
		d.Estimator,
		dispatch.Config{
			AttemptTimeoutFactor: cfg.Orchestrator.AttemptTimeoutFactor,
			MinAttemptTimeout:    cfg.Orchestrator.MinAttemptTimeout,
		},
		d.Logger,
	)

	var sink usage.Sink
	if d.DB != nil {
		d.UsageRepo = postgres.NewUsageRepository(d.DB, d.Logger)
		sink = d.UsageRepo
	} else {
		sink = usage.NewLogSink(d.Logger)
	}

	d.Recorder = usage.NewRecorder(sink, d.Logger, usage.Config{
		BufferSize:  cfg.Usage.BufferSize,
		WorkerCount: cfg.Usage.WorkerCount,
	})

	d.Orchestrator = orchestrator.NewService(
		d.Catalog,
		d.Selector,
		d.Dispatcher,
		d.Recorder,
		d.Logger,
	)
}

// SQLDB returns the raw sql.DB for health checks, or nil when no database is configured
func (d *Dependencies) SQLDB() *sql.DB {
	if d.DB == nil {
		return nil
	}
	return d.DB.DB
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Recorder != nil {
		if err := d.Recorder.Stop(d.Config.Server.ShutdownTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop usage recorder: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
