package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"costboard/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func rec(day int, service, cost string) core.CostRecord {
	return core.CostRecord{Date: core.NewDate(2024, 1, day), Service: service, Cost: decimal.RequireFromString(cost)}
}

func TestRepositoryOverwrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Put(ctx, rec(2, "Amazon S3", "1.00")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutBatch(ctx, []core.CostRecord{rec(2, "Amazon S3", "7.25"), rec(1, "Amazon EC2", "0.1234567")}); err != nil {
		t.Fatalf("put batch: %v", err)
	}

	rows, err := repo.ScanAll(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	got := map[string]string{}
	for _, row := range rows {
		got[row.Key()] = row[core.AttrCost]
	}
	if got["2024-01-02#Amazon S3"] != "7.25" {
		t.Fatalf("expected overwritten cost 7.25, got %q", got["2024-01-02#Amazon S3"])
	}
	if got["2024-01-01#Amazon EC2"] != "0.1234567" {
		t.Fatalf("expected exact cost round trip, got %q", got["2024-01-01#Amazon EC2"])
	}
}

func TestRepositoryPutBatchIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.PutBatch(ctx, []core.CostRecord{rec(1, "Amazon S3", "1"), {Date: core.NewDate(2024, 1, 1)}})
	if err == nil {
		t.Fatalf("expected error for record without service")
	}
	n, err := repo.queries.CountCostRecords(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing written, got %d rows", n)
	}
}

func TestRepositoryPutBatchTooLarge(t *testing.T) {
	repo := newTestRepo(t)
	recs := make([]core.CostRecord, MaxBatchSize+1)
	if err := repo.PutBatch(context.Background(), recs); err == nil {
		t.Fatalf("expected error for oversized batch")
	}
}

func TestRepositoryScanReturnsMalformedRowsAsText(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.db.ExecContext(ctx,
		`INSERT INTO cost_records (date, service, cost) VALUES ('yesterday', 'Amazon S3', 'abc')`); err != nil {
		t.Fatalf("raw insert: %v", err)
	}

	rows, err := repo.ScanAll(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if _, err := core.ParseRawRow(rows[0]); err == nil {
		t.Fatalf("expected malformed row to fail parsing")
	}
}

func TestRepositorySaveTicket(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ticket := core.Ticket{ID: uuid.New(), Message: "bill looks wrong", Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	if err := repo.SaveTicket(ctx, ticket); err != nil {
		t.Fatalf("save ticket: %v", err)
	}

	got, err := repo.queries.GetTicket(ctx, ticket.ID.String())
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if got.Message != ticket.Message || got.CreatedAt != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected ticket row %+v", got)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
