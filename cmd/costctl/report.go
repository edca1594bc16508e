package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	appcli "costboard/internal/cli"
	"costboard/internal/report"
)

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Print daily totals, the per-service breakdown and the raw table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json)",
			},
			&cli.BoolFlag{
				Name:    "strict",
				Usage:   "Fail on the first malformed stored record",
				EnvVars: []string{"REPORT_STRICT"},
			},
		},
		Action: runReport,
	}
}

func runReport(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	cfg.ReportStrict = c.Bool("strict")

	format := c.String("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	res, err := appcli.InitBackend(c.Context, logger, cfg)
	if err != nil {
		return err
	}
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	d, err := appcli.NewPresenter(logger, cfg, res.Backend).Snapshot(c.Context)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}
	if err := report.CheckConsistency(d.DailyTotals, d.Pivot); err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	return report.WriteText(c.App.Writer, d)
}
