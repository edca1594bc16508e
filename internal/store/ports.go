package store

import (
	"context"

	"costboard/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordWriter persists cost records with last-write-wins semantics per (date, service).
	RecordWriter interface {
		Put(ctx context.Context, rec core.CostRecord) error
		// PutBatch writes up to MaxBatchSize records. It is not atomic across calls.
		PutBatch(ctx context.Context, recs []core.CostRecord) error
		MaxBatchSize() int
	}

	// RecordScanner returns every stored row without interpreting it.
	RecordScanner interface {
		ScanAll(ctx context.Context) ([]core.RawRow, error)
	}

	RecordStore interface {
		RecordWriter
		RecordScanner
	}

	// TicketWriter stores support tickets.
	TicketWriter interface {
		SaveTicket(ctx context.Context, t core.Ticket) error
	}
)
