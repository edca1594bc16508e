package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"costboard/internal/amqp"
	"costboard/internal/cli"
	"costboard/internal/ingest"
	"costboard/internal/log"
	"costboard/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")))
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting cost-worker", "interval", cfg.IngestInterval, "backend", cfg.DataBackend)

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

	var (
		opts       []ingest.Option
		amqpClient *amqp.Client
	)
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPOutcomeQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts = append(opts, ingest.WithPublisher(amqpClient))
		logger.Info("AMQP enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue, "outcome_queue", cfg.AMQPOutcomeQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, running on the ticker only")
	}

	coord, err := cli.NewCoordinator(ctx, logger, cfg, res.Backend, opts...)
	if err != nil {
		logger.Error("Failed to build ingestion coordinator", "error", err)
		os.Exit(1)
	}
	w := worker.NewIngestWorker(coord, cfg.IngestInterval, logger.WithComponent(log.ComponentWorker))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx, true) })
	if amqpClient != nil {
		g.Go(func() error { return amqpClient.RunConsumer(gctx, w.HandleTrigger) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	if last, runs := w.Last(); runs > 0 {
		logger.Info("Worker stopped", "runs", runs, log.FieldStatus, last.Status)
	}
}
