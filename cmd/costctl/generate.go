package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/urfave/cli/v2"

	appcli "costboard/internal/cli"
	"costboard/internal/core"
	"costboard/internal/fallback"
	"costboard/internal/report"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Print synthetic cost records, optionally writing them to the store",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "Days to cover, ending today (default FALLBACK_DAYS)",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Seed for reproducible output (0 picks a random seed)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json)",
			},
			&cli.BoolFlag{
				Name:  "write",
				Usage: "Store the records in the configured backend",
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	days := cfg.FallbackDays
	if c.IsSet("days") {
		days = c.Int("days")
	}

	var opts []fallback.Option
	if seed := c.Uint64("seed"); seed != 0 {
		opts = append(opts, fallback.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}
	services := cfg.FallbackServices
	if len(services) == 0 {
		services = core.Catalog()
	}
	records, err := fallback.NewGenerator(opts...).Generate(days, services)
	if err != nil {
		return err
	}

	if c.Bool("write") {
		res, err := appcli.InitBackend(c.Context, logger, cfg)
		if err != nil {
			return err
		}
		if res.Cleanup != nil {
			defer res.Cleanup()
		}
		size := res.Backend.MaxBatchSize()
		for start := 0; start < len(records); start += size {
			end := min(start+size, len(records))
			if err := res.Backend.PutBatch(c.Context, records[start:end]); err != nil {
				return fmt.Errorf("write synthetic records [%d, %d): %w", start, end, err)
			}
		}
		logger.Info("Synthetic records stored", "records", len(records), "backend", cfg.DataBackend)
	}

	switch c.String("format") {
	case "json":
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "table":
		report.SortRaw(records)
		_, err := fmt.Fprintln(c.App.Writer, report.RecordsTable(records))
		return err
	default:
		return fmt.Errorf("unknown format %q", c.String("format"))
	}
}
