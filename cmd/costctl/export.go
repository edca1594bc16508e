package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	appcli "costboard/internal/cli"
	"costboard/internal/log"
	"costboard/internal/sheets"
	gsheet "costboard/internal/sheets/google"
	memsheet "costboard/internal/sheets/memory"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the raw table, daily totals and pivot to Google Sheets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "spreadsheet-id",
				Usage:   "Target spreadsheet",
				EnvVars: []string{"GOOGLE_SPREADSHEET_ID"},
			},
			&cli.StringFlag{
				Name:    "sheet-name",
				Usage:   "Base name for the exported tabs",
				EnvVars: []string{"GOOGLE_SHEET_NAME"},
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Build the grids without calling Google",
			},
		},
		Action: runExport,
	}
}

func runExport(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	if v := c.String("sheet-name"); v != "" {
		cfg.GoogleSheetName = v
	}

	var writer sheets.GridWriter
	if c.Bool("dry-run") {
		writer = memsheet.New()
	} else {
		id := c.String("spreadsheet-id")
		if id == "" {
			return errors.New("GOOGLE_SPREADSHEET_ID or --spreadsheet-id is required")
		}
		client, err := gsheet.New(c.Context, id, gsheet.CredentialsFromEnv())
		if err != nil {
			return err
		}
		writer = client
	}

	res, err := appcli.InitBackend(c.Context, logger, cfg)
	if err != nil {
		return err
	}
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	exp := sheets.NewExporter(appcli.NewPresenter(logger, cfg, res.Backend), writer, cfg.GoogleSheetName)
	out, err := exp.Export(c.Context)
	if err != nil {
		return err
	}

	logger.WithComponent(log.ComponentSheets).Info("Export finished",
		"dry_run", c.Bool("dry-run"),
		"raw_rows", out.RawRows,
		"total_rows", out.TotalRows,
		"pivot_rows", out.PivotRows)
	fmt.Fprintf(c.App.Writer, "%s: %d rows\n%s: %d rows\n%s: %d rows\n",
		exp.TabName(sheets.TabRaw), out.RawRows,
		exp.TabName(sheets.TabTotals), out.TotalRows,
		exp.TabName(sheets.TabPivot), out.PivotRows)
	return nil
}
