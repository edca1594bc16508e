// Package report rebuilds dashboard views from a full scan of the record store.
// Nothing is cached: every call reflects the store as it is now.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"costboard/internal/core"
	"costboard/internal/log"
	"costboard/internal/store"
)

// DefaultLoadTimeout bounds a shared snapshot load once it is detached from its callers.
const DefaultLoadTimeout = 30 * time.Second

type Presenter struct {
	scanner     store.RecordScanner
	strict      bool
	loadTimeout time.Duration
	logger      *log.Logger
	group       singleflight.Group
}

type Option func(*Presenter)

// StrictLoad makes Load fail on the first malformed row instead of skipping it.
func StrictLoad(strict bool) Option {
	return func(p *Presenter) { p.strict = strict }
}

// WithLoadTimeout bounds each shared snapshot load.
func WithLoadTimeout(d time.Duration) Option {
	return func(p *Presenter) {
		if d > 0 {
			p.loadTimeout = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Presenter) { p.logger = l }
}

func NewPresenter(scanner store.RecordScanner, opts ...Option) *Presenter {
	p := &Presenter{scanner: scanner, loadTimeout: DefaultLoadTimeout, logger: log.Default(log.ComponentReport)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load scans the store and returns the sorted raw table.
func (p *Presenter) Load(ctx context.Context) (core.RawTable, error) {
	rows, err := p.scanner.ScanAll(ctx)
	if err != nil {
		return core.RawTable{}, fmt.Errorf("scan records: %w", err)
	}

	table := core.RawTable{Records: make([]core.CostRecord, 0, len(rows))}
	for _, row := range rows {
		rec, err := core.ParseRawRow(row)
		if err != nil {
			var malformed *core.MalformedRecordError
			if p.strict || !errors.As(err, &malformed) {
				return core.RawTable{}, err
			}
			table.Skipped++
			p.logger.WarnContext(ctx, "Skipping malformed record", "error", err)
			continue
		}
		table.Records = append(table.Records, rec)
	}
	SortRaw(table.Records)

	p.logger.DebugContext(ctx, "Records loaded",
		log.FieldRecords, len(table.Records),
		log.FieldSkipped, table.Skipped)
	return table, nil
}

// Snapshot derives every view from a single load. Concurrent callers share
// the load that is already in flight. The load runs detached from any one
// caller's cancellation; each caller stops waiting when its own ctx is done.
func (p *Presenter) Snapshot(ctx context.Context) (core.Dashboard, error) {
	ch := p.group.DoChan("snapshot", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.loadTimeout)
		defer cancel()

		table, err := p.Load(loadCtx)
		if err != nil {
			return core.Dashboard{}, err
		}
		return core.Dashboard{
			Raw:         table,
			DailyTotals: DailyTotals(table),
			Pivot:       ServicePivot(table),
		}, nil
	})

	select {
	case <-ctx.Done():
		return core.Dashboard{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return core.Dashboard{}, res.Err
		}
		return res.Val.(core.Dashboard), nil
	}
}
