package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by DATA_BACKEND.
var validBackends = []string{"sqlite", "dynamodb", "memory"}

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// AWS
	AWSRegion         string
	DynamoCostTable   string
	DynamoTicketTable string
	CostMetric        string

	// Ingestion
	FallbackDays     int
	FallbackServices []string
	BatchSize        int
	BatchRetries     int
	IngestInterval   time.Duration

	// AMQP (disabled when AMQPURL is empty)
	AMQPURL          string
	AMQPExchange     string
	AMQPQueue        string
	AMQPOutcomeQueue string

	// Presentation
	ReportStrict bool

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: getEnv("DATA_BACKEND", "sqlite"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/costboard.db"),

		AWSRegion:         getEnv("AWS_REGION", "us-east-2"),
		DynamoCostTable:   getEnv("DYNAMODB_COST_TABLE", "AWS_Cost_Usage"),
		DynamoTicketTable: getEnv("DYNAMODB_TICKET_TABLE", "SupportTickets"),
		CostMetric:        getEnv("COST_METRIC", "UnblendedCost"),

		FallbackDays:     getEnvInt("FALLBACK_DAYS", 14),
		FallbackServices: getEnvList("FALLBACK_SERVICES"),
		BatchSize:        getEnvInt("INGEST_BATCH_SIZE", 25),
		BatchRetries:     getEnvInt("INGEST_BATCH_RETRIES", 1),
		IngestInterval:   getEnvDuration("INGEST_INTERVAL", 24*time.Hour),

		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "costboard"),
		AMQPQueue:        getEnv("AMQP_QUEUE", "ingest_triggers"),
		AMQPOutcomeQueue: getEnv("AMQP_OUTCOME_QUEUE", "ingest_outcomes"),

		ReportStrict: getEnvBool("REPORT_STRICT", false),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Costs"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" && strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.DataBackend == "dynamodb" {
		if c.DynamoCostTable == "" {
			errors = append(errors, "DynamoDB cost table cannot be empty when using dynamodb backend")
		}
		if c.DynamoTicketTable == "" {
			errors = append(errors, "DynamoDB ticket table cannot be empty when using dynamodb backend")
		}
	}

	if c.AWSRegion == "" {
		errors = append(errors, "AWS region cannot be empty")
	}
	if c.CostMetric == "" {
		errors = append(errors, "cost metric cannot be empty")
	}

	if c.FallbackDays < 1 || c.FallbackDays > 366 {
		errors = append(errors, fmt.Sprintf("invalid fallback days %d: must be between 1 and 366", c.FallbackDays))
	}
	if c.BatchSize < 1 || c.BatchSize > 500 {
		errors = append(errors, fmt.Sprintf("invalid ingest batch size %d: must be between 1 and 500", c.BatchSize))
	}
	if c.BatchRetries < 0 || c.BatchRetries > 1 {
		errors = append(errors, fmt.Sprintf("invalid ingest batch retries %d: must be 0 or 1", c.BatchRetries))
	}
	if c.IngestInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid ingest interval %v: must be at least 1 minute", c.IngestInterval))
	} else if c.IngestInterval > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid ingest interval %v: must be at most 7 days", c.IngestInterval))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPOutcomeQueue == c.AMQPQueue {
			errors = append(errors, "AMQP outcome queue must differ from the trigger queue")
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
