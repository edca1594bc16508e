package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"costboard/internal/core"
	"costboard/internal/store"

	_ "modernc.org/sqlite"
)

// MaxBatchSize keeps one transaction reasonably short.
const MaxBatchSize = 500

var (
	_ store.RecordStore  = (*Repository)(nil)
	_ store.TicketWriter = (*Repository)(nil)
)

type Repository struct {
	db      *sql.DB
	queries *Queries
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, queries: New(db)}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection for readiness checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) MaxBatchSize() int { return MaxBatchSize }

// Put upserts one record.
func (r *Repository) Put(ctx context.Context, rec core.CostRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := r.queries.UpsertCostRecord(ctx, upsertParams(rec)); err != nil {
		return fmt.Errorf("upsert cost record %s: %w", rec.Key(), err)
	}
	return nil
}

// PutBatch upserts all records in one transaction; either every record lands or none.
func (r *Repository) PutBatch(ctx context.Context, recs []core.CostRecord) error {
	if len(recs) > MaxBatchSize {
		return fmt.Errorf("batch of %d exceeds max %d", len(recs), MaxBatchSize)
	}
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	for _, rec := range recs {
		if err := qtx.UpsertCostRecord(ctx, upsertParams(rec)); err != nil {
			return fmt.Errorf("upsert cost record %s: %w", rec.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.DebugContext(ctx, "Cost records saved to SQLite", "count", len(recs))
	return nil
}

// ScanAll returns every stored row as text; NULL columns are left out of the row.
func (r *Repository) ScanAll(ctx context.Context) ([]core.RawRow, error) {
	items, err := r.queries.ListCostRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cost records: %w", err)
	}

	rows := make([]core.RawRow, 0, len(items))
	for _, it := range items {
		row := core.RawRow{}
		if it.Date.Valid {
			row[core.AttrDate] = it.Date.String
		}
		if it.Service.Valid {
			row[core.AttrService] = it.Service.String
		}
		if it.Cost.Valid {
			row[core.AttrCost] = it.Cost.String
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *Repository) SaveTicket(ctx context.Context, t core.Ticket) error {
	err := r.queries.InsertTicket(ctx, InsertTicketParams{
		TicketID:  t.ID.String(),
		Message:   t.Message,
		CreatedAt: t.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	slog.InfoContext(ctx, "Ticket saved to SQLite", "ticket_id", t.ID)
	return nil
}

func upsertParams(rec core.CostRecord) UpsertCostRecordParams {
	return UpsertCostRecordParams{
		Date:    rec.Date.String(),
		Service: rec.Service,
		Cost:    rec.Cost.String(),
	}
}
