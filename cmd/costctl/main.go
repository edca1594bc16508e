// costctl runs one-shot ingestion, reporting and export jobs against the cost store.
//
// Usage:
//
//	costctl ingest [--async]
//	costctl report [--format table|json]
//	costctl export [--dry-run]
//	costctl generate [--days 14] [--write]
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	appcli "costboard/internal/cli"
	"costboard/internal/config"
	"costboard/internal/log"
)

var version = "dev"

func main() {
	appcli.LoadEnvFile()

	app := &cli.App{
		Name:    "costctl",
		Usage:   "AWS daily cost ingestion and reporting",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "Storage backend (sqlite, dynamodb, memory)",
				EnvVars: []string{"DATA_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "SQLite database path",
				EnvVars: []string{"SQLITE_DB_PATH"},
			},
		},
		Commands: []*cli.Command{
			ingestCommand(),
			reportCommand(),
			exportCommand(),
			generateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration, applies the global flags and installs the logger.
// Logs go to stderr so command output on stdout stays machine readable.
func setup(c *cli.Context) (*config.Config, *log.Logger, error) {
	cfg := config.Load()
	if v := c.String("backend"); v != "" {
		cfg.DataBackend = v
	}
	if v := c.String("db"); v != "" {
		cfg.SQLiteDBPath = v
	}
	cfg.LogLevel = c.String("log-level")
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
		Handler:   log.StderrHandler(log.ParseLevel(cfg.LogLevel)),
	})
	log.SetDefault(logger)
	return cfg, logger, nil
}
