// Package cli gathers the start-up steps shared by cmd/costboard,
// cmd/cost-worker and cmd/costctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"costboard/internal/awsclient"
	"costboard/internal/backend"
	"costboard/internal/billing"
	"costboard/internal/config"
	"costboard/internal/fallback"
	"costboard/internal/ingest"
	"costboard/internal/log"
	"costboard/internal/report"
)

// SetupLogger installs a text logger at level as the process default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits the process when it is invalid.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend opens the configured record and ticket store.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// NewCoordinator wires Cost Explorer, the fallback generator and the store.
func NewCoordinator(ctx context.Context, logger *log.Logger, cfg *config.Config, b backend.Backend, opts ...ingest.Option) (*ingest.Coordinator, error) {
	awsCfg, err := awsclient.Load(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	fetcher := billing.NewFetcher(awsclient.CostExplorer(awsCfg),
		billing.WithMetric(cfg.CostMetric),
		billing.WithLogger(logger.WithComponent(log.ComponentBilling)))

	icfg := ingest.Config{
		FallbackDays: cfg.FallbackDays,
		Services:     cfg.FallbackServices,
		BatchSize:    cfg.BatchSize,
		BatchRetries: cfg.BatchRetries,
	}
	opts = append([]ingest.Option{ingest.WithLogger(logger.WithComponent(log.ComponentIngest))}, opts...)
	return ingest.NewCoordinator(fetcher, fallback.NewGenerator(), b, icfg, opts...), nil
}

// NewPresenter builds the report presenter with the configured load mode.
func NewPresenter(logger *log.Logger, cfg *config.Config, b backend.Backend) *report.Presenter {
	return report.NewPresenter(b,
		report.StrictLoad(cfg.ReportStrict),
		report.WithLogger(logger.WithComponent(log.ComponentReport)))
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown requested")
	}()
	return ctx, cancel
}
