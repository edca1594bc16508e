package backend

import (
	"context"
	"fmt"
	"log/slog"

	"costboard/internal/awsclient"
	"costboard/internal/store/dynamo"
	"costboard/internal/store/memory"
	"costboard/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case DynamoDBBackend:
		return f.createDynamoBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
		Ping:    repo.Ping,
	}, nil
}

func (f *DefaultFactory) createDynamoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	awsCfg, err := awsclient.Load(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DynamoDB backend: %w", err)
	}
	st := dynamo.New(awsclient.DynamoDB(awsCfg), config.DynamoCostTable, config.DynamoTicketTable)

	f.logger.Info("Initialized DynamoDB backend",
		"region", config.AWSRegion,
		"cost_table", config.DynamoCostTable,
		"ticket_table", config.DynamoTicketTable)

	return &BackendResult{Backend: st, Cleanup: st.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	st := memory.New()
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Backend: st, Cleanup: st.Close}, nil
}
