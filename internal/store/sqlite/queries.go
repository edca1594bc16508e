package sqlite

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const upsertCostRecord = `
INSERT INTO cost_records (date, service, cost, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(date, service) DO UPDATE SET
    cost = excluded.cost,
    updated_at = excluded.updated_at
`

type UpsertCostRecordParams struct {
	Date    string
	Service string
	Cost    string
}

func (q *Queries) UpsertCostRecord(ctx context.Context, arg UpsertCostRecordParams) error {
	_, err := q.db.ExecContext(ctx, upsertCostRecord, arg.Date, arg.Service, arg.Cost)
	return err
}

const listCostRecords = `
SELECT date, service, cost FROM cost_records ORDER BY date, service
`

type CostRecordRow struct {
	Date    sql.NullString
	Service sql.NullString
	Cost    sql.NullString
}

func (q *Queries) ListCostRecords(ctx context.Context) ([]CostRecordRow, error) {
	rows, err := q.db.QueryContext(ctx, listCostRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CostRecordRow
	for rows.Next() {
		var i CostRecordRow
		if err := rows.Scan(&i.Date, &i.Service, &i.Cost); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countCostRecords = `SELECT COUNT(*) FROM cost_records`

func (q *Queries) CountCostRecords(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCostRecords).Scan(&n)
	return n, err
}

const insertTicket = `
INSERT INTO tickets (ticket_id, message, created_at) VALUES (?, ?, ?)
`

type InsertTicketParams struct {
	TicketID  string
	Message   string
	CreatedAt string
}

func (q *Queries) InsertTicket(ctx context.Context, arg InsertTicketParams) error {
	_, err := q.db.ExecContext(ctx, insertTicket, arg.TicketID, arg.Message, arg.CreatedAt)
	return err
}

const getTicket = `
SELECT ticket_id, message, created_at FROM tickets WHERE ticket_id = ?
`

func (q *Queries) GetTicket(ctx context.Context, id string) (InsertTicketParams, error) {
	var t InsertTicketParams
	err := q.db.QueryRowContext(ctx, getTicket, id).Scan(&t.TicketID, &t.Message, &t.CreatedAt)
	return t, err
}
