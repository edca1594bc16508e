package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"costboard/internal/cli"
	apphttp "costboard/internal/http"
	"costboard/internal/log"
	"costboard/internal/tickets"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")))
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}()

	presenter := cli.NewPresenter(logger, cfg, res.Backend)
	svc := tickets.NewService(res.Backend)

	srv, err := apphttp.NewServer(":"+cfg.Port, presenter, svc,
		apphttp.WithReadiness(res.Ping),
		apphttp.WithLogger(logger.WithComponent(log.ComponentHTTP)))
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting costboard server", "port", cfg.Port, "backend", cfg.DataBackend, "strict", cfg.ReportStrict)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
