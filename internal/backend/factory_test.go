package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"costboard/internal/config"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Error("sheets is not a storage backend")
	}
	if got := GetBackendTypeStrings(); len(got) != 3 || got[1] != "dynamodb" {
		t.Errorf("unexpected type strings %v", got)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "dynamodb", AWSRegion: "us-east-2", DynamoCostTable: "c", DynamoTicketTable: "t"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != DynamoDBBackend || cfg.DynamoCostTable != "c" {
		t.Errorf("unexpected backend config %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "sqlite ok", config: Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "dynamodb ok", config: Config{Type: DynamoDBBackend, AWSRegion: "us-east-2", DynamoCostTable: "c", DynamoTicketTable: "t"}},
		{name: "dynamodb without tables", config: Config{Type: DynamoDBBackend, AWSRegion: "us-east-2"}, wantErr: true},
		{name: "memory ok", config: Config{Type: MemoryBackend}},
		{name: "unknown", config: Config{Type: "csv"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		if res.Backend.MaxBatchSize() != 25 {
			t.Errorf("unexpected max batch size %d", res.Backend.MaxBatchSize())
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "c.db")})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		defer res.Cleanup()
		if err := res.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
		if res.Backend.MaxBatchSize() != 500 {
			t.Errorf("unexpected max batch size %d", res.Backend.MaxBatchSize())
		}
	})
}
