// Package container provides dependency injection for the ekstre-csv application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"fjacquet/ekstre-csv/internal/admin"
	"fjacquet/ekstre-csv/internal/config"
	"fjacquet/ekstre-csv/internal/history"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/pipeline"
	"fjacquet/ekstre-csv/internal/registry"
	"fjacquet/ekstre-csv/internal/report"
	"fjacquet/ekstre-csv/internal/tableio"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	registry  *registry.Store
	admin     *admin.Manager
	history   history.Store
	converter *pipeline.Converter
	batch     *pipeline.BatchProcessor
	reports   *report.ReportGenerator
}

// NewContainer creates and wires all application dependencies with a logger
// built from cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(ctx, cfg, config.NewLogger(cfg))
}

// NewContainerWithLogger is NewContainer with an explicit logger.
func NewContainerWithLogger(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	logger = logging.OrDiscard(logger)

	formats := registry.NewStore(cfg.Registry.File, logger)
	if err := formats.Load(); err != nil {
		return nil, fmt.Errorf("failed to load format registry: %w", err)
	}

	adminManager, err := admin.NewManager(cfg.Admin.File, logger,
		admin.WithDefaults(cfg.History.RetentionDays, cfg.Upload.MaxSizeMB))
	if err != nil {
		return nil, fmt.Errorf("failed to load admin settings: %w", err)
	}

	store, err := newHistoryStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithReader(tableio.NewReader(tableio.Options{Encoding: cfg.Input.EncodingFallback})),
	}
	if cfg.History.Enabled {
		opts = append(opts, pipeline.WithHistory(store))
	}
	converter := pipeline.NewConverter(formats, cfg.Scoring, logger, opts...)

	logger.Info("Container initialized successfully",
		logging.F(logging.FieldFile, formats.Path()),
		logging.F("history", cfg.History.Enabled),
		logging.F("postgres", cfg.Database.URL != ""),
		logging.F(logging.FieldWorkers, cfg.Batch.Workers))

	return &Container{
		logger:    logger,
		config:    cfg,
		registry:  formats,
		admin:     adminManager,
		history:   store,
		converter: converter,
		batch:     pipeline.NewBatchProcessor(converter, cfg.Batch.Workers, logger),
		reports:   report.NewReportGenerator(logger),
	}, nil
}

// newHistoryStore connects to Postgres when a database URL is configured
// and falls back to an in-memory store otherwise.
func newHistoryStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (history.Store, error) {
	if cfg.Database.URL == "" {
		logger.Debug("No database configured, keeping history in memory")
		return history.NewMemoryStore(), nil
	}
	store, err := history.NewPostgresStore(ctx, history.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetRegistry returns the format registry.
func (c *Container) GetRegistry() *registry.Store {
	return c.registry
}

// GetAdmin returns the admin settings manager.
func (c *Container) GetAdmin() *admin.Manager {
	return c.admin
}

// GetHistory returns the conversion history store.
func (c *Container) GetHistory() history.Store {
	return c.history
}

// GetConverter returns the statement converter.
func (c *Container) GetConverter() *pipeline.Converter {
	return c.converter
}

// GetBatchProcessor returns the batch processor.
func (c *Container) GetBatchProcessor() *pipeline.BatchProcessor {
	return c.batch
}

// GetReportGenerator returns the report generator.
func (c *Container) GetReportGenerator() *report.ReportGenerator {
	return c.reports
}

// OutputOptions returns the ledger output settings from the configuration.
func (c *Container) OutputOptions() pipeline.OutputOptions {
	return pipeline.OutputOptions{
		Format: c.config.Output.Format,
		CSV: tableio.CSVOptions{
			Delimiter: c.config.DelimiterRune(),
			BOM:       c.config.Output.BOM,
		},
	}
}

// Close releases the history store.
func (c *Container) Close() error {
	c.history.Close()
	c.logger.Debug("Container closed")
	return nil
}
