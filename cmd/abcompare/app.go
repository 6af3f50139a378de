package main

import (
	"context"
	"os"
	"time"

	"github.com/kbukum/abcompare/dag"
	"github.com/kbukum/abcompare/errors"
	"github.com/kbukum/abcompare/logger"
	"github.com/kbukum/abcompare/observability"
	"github.com/kbukum/abcompare/process"
	"github.com/kbukum/abcompare/storage"
	"github.com/kbukum/abcompare/version"

	_ "github.com/kbukum/abcompare/storage/local"
	_ "github.com/kbukum/abcompare/storage/s3"
)

const shutdownTimeout = 5 * time.Second

// app holds the components shared by commands that run pipelines.
type app struct {
	cfg      *AppConfig
	log      *logger.Logger
	exec     process.Executor
	metrics  *observability.Metrics
	shutdown observability.ShutdownFunc
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	if opts.configFile != "" {
		if _, err := os.Stat(opts.configFile); err != nil {
			return nil, errors.NotFound("config file", opts.configFile)
		}
	}
	cfg, err := loadConfig(opts.configFile, opts.envFile)
	if err != nil {
		return nil, errors.InvalidInput("config", err.Error())
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.InvalidInput("config", err.Error())
	}

	logger.Init(&cfg.Logging)
	log := logger.WithComponent("cli")

	info := version.Get()
	shutdown, err := observability.Setup(ctx, observability.ServiceInfo{
		Name:        cfg.Name,
		Version:     info.Short(),
		Environment: cfg.Environment,
	}, cfg.Observability)
	if err != nil {
		log.Warn("observability disabled", logger.MergeWithError(nil, err))
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		exec:     process.NewRunner(cfg.Process, logger.WithComponent("process")),
		shutdown: shutdown,
	}
	if cfg.Observability.Metrics.Enabled() {
		m, err := observability.NewMetrics(observability.Meter(serviceName))
		if err != nil {
			log.Warn("metric instruments unavailable", logger.MergeWithError(nil, err))
		}
		a.metrics = m
	}
	log.Debug("configuration loaded", logger.Fields("version", info.Short(), "environment", cfg.Environment))
	return a, nil
}

func (a *app) runner() *dag.Runner {
	return &dag.Runner{
		MaxParallel: a.cfg.Runner.MaxParallel,
		StepTimeout: a.cfg.Runner.StepTimeout,
		Logger:      logger.WithComponent("dag"),
		Tracing:     a.cfg.Observability.Tracing.Enabled(),
		Metrics:     a.metrics,
	}
}

// archive opens the mirror storage when enabled. Failures disable the
// mirror rather than the comparison.
func (a *app) archive(ctx context.Context) storage.Storage {
	if !a.cfg.Archive.Enabled {
		return nil
	}
	st, err := storage.New(ctx, a.cfg.Archive, logger.WithComponent("storage"))
	if err != nil {
		a.log.Error("archive storage unavailable", logger.MergeWithError(nil, err))
		return nil
	}
	return st
}

func (a *app) close() {
	if a.shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.log.Warn("observability shutdown", logger.MergeWithError(nil, err))
	}
}
