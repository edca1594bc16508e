package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"

	"costboard/internal/amqp"
	appcli "costboard/internal/cli"
	"costboard/internal/ingest"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Run one ingestion and print the response body",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "async",
				Usage: "Publish a trigger for cost-worker instead of running here",
			},
			&cli.StringFlag{
				Name:  "requested-by",
				Value: "costctl",
				Usage: "Name recorded on the published trigger",
			},
		},
		Action: runIngest,
	}
}

func runIngest(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	if c.Bool("async") {
		if !cfg.AMQPEnabled() {
			return errors.New("--async needs AMQP_URL")
		}
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPOutcomeQueue)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		defer client.Close()
		if err := client.PublishTrigger(ctx, c.String("requested-by")); err != nil {
			return fmt.Errorf("publish trigger: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Trigger published to %s/%s\n", cfg.AMQPExchange, cfg.AMQPQueue)
		return nil
	}

	res, err := appcli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	var opts []ingest.Option
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPOutcomeQueue)
		if err != nil {
			logger.Warn("Broker unreachable, outcome will not be published", "error", err)
		} else {
			defer client.Close()
			opts = append(opts, ingest.WithPublisher(client))
		}
	}

	coord, err := appcli.NewCoordinator(ctx, logger, cfg, res.Backend, opts...)
	if err != nil {
		return err
	}

	code, body := ingest.NewHandler(coord).Invoke(ctx)
	fmt.Fprintln(c.App.Writer, string(body))
	if code == http.StatusInternalServerError {
		return cli.Exit("", 1)
	}
	return nil
}
