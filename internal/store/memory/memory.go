package memory

import (
	"context"
	"sort"
	"sync"

	"costboard/internal/core"
	"costboard/internal/store"
)

// DefaultMaxBatchSize bounds PutBatch like the durable backends do.
const DefaultMaxBatchSize = 25

// Ensure interface conformance
var (
	_ store.RecordStore  = (*Store)(nil)
	_ store.TicketWriter = (*Store)(nil)
)

type Store struct {
	mu       sync.Mutex
	rows     map[string]core.RawRow
	tickets  []core.Ticket
	maxBatch int
}

func New() *Store {
	return &Store{rows: map[string]core.RawRow{}, maxBatch: DefaultMaxBatchSize}
}

// Put stores the record, replacing any earlier value for the same key.
func (s *Store) Put(_ context.Context, rec core.CostRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rec.Key()] = core.ToRawRow(rec)
	return nil
}

// PutBatch validates the whole batch before applying any of it.
func (s *Store) PutBatch(_ context.Context, recs []core.CostRecord) error {
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.rows[rec.Key()] = core.ToRawRow(rec)
	}
	return nil
}

func (s *Store) MaxBatchSize() int { return s.maxBatch }

// PutRaw inserts an arbitrary row, bypassing validation. Used to simulate foreign writers.
func (s *Store) PutRaw(key string, row core.RawRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(core.RawRow, len(row))
	for k, v := range row {
		cp[k] = v
	}
	s.rows[key] = cp
}

// ScanAll returns copies of every row, ordered by key for stable output.
func (s *Store) ScanAll(_ context.Context) ([]core.RawRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.rows))
	for k := range s.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]core.RawRow, 0, len(keys))
	for _, k := range keys {
		row := make(core.RawRow, len(s.rows[k]))
		for a, v := range s.rows[k] {
			row[a] = v
		}
		out = append(out, row)
	}
	return out, nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *Store) SaveTicket(_ context.Context, t core.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append(s.tickets, t)
	return nil
}

// Tickets returns the stored tickets in arrival order.
func (s *Store) Tickets() []core.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Ticket(nil), s.tickets...)
}

func (s *Store) Close() error { return nil }
