// Package ingest runs one ingestion: fetch real spend, fall back to synthetic
// data when there is none, and write the records in bounded chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"costboard/internal/billing"
	"costboard/internal/core"
	"costboard/internal/log"
	"costboard/internal/store"
)

const (
	DefaultFallbackDays = 14
	DefaultBatchSize    = 25
	MaxBatchRetries     = 1
)

// Fetcher returns the tagged billing result for the recent window.
type Fetcher interface {
	FetchRecent(ctx context.Context) (billing.FetchResult, error)
}

// Generator produces synthetic records.
type Generator interface {
	Generate(days int, services []string) ([]core.CostRecord, error)
}

// OutcomePublisher is notified after every run.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, o core.Outcome) error
}

type Config struct {
	FallbackDays int
	Services     []string
	BatchSize    int
	BatchRetries int
}

// DefaultConfig uses the built-in service catalog.
func DefaultConfig() Config {
	return Config{
		FallbackDays: DefaultFallbackDays,
		Services:     core.Catalog(),
		BatchSize:    DefaultBatchSize,
		BatchRetries: MaxBatchRetries,
	}
}

func (c Config) normalized() Config {
	if c.FallbackDays <= 0 {
		c.FallbackDays = DefaultFallbackDays
	}
	if len(c.Services) == 0 {
		c.Services = core.Catalog()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchRetries < 0 {
		c.BatchRetries = 0
	}
	if c.BatchRetries > MaxBatchRetries {
		c.BatchRetries = MaxBatchRetries
	}
	return c
}

type Coordinator struct {
	fetcher   Fetcher
	generator Generator
	store     store.RecordWriter
	cfg       Config
	publisher OutcomePublisher
	logger    *log.Logger
}

type Option func(*Coordinator)

func WithPublisher(p OutcomePublisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func NewCoordinator(fetcher Fetcher, generator Generator, w store.RecordWriter, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		fetcher:   fetcher,
		generator: generator,
		store:     w,
		cfg:       cfg.normalized(),
		logger:    log.Default(log.ComponentIngest),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// batchSize is the configured size capped at what the store accepts.
func (c *Coordinator) batchSize() int {
	size := c.cfg.BatchSize
	if limit := c.store.MaxBatchSize(); limit > 0 && size > limit {
		size = limit
	}
	return size
}

// Run performs one ingestion. It never returns an error or panics; every
// failure is reported through the outcome.
func (c *Coordinator) Run(ctx context.Context) (out core.Outcome) {
	var (
		records   []core.CostRecord
		source    core.DataSource
		committed int
	)
	defer func() {
		if r := recover(); r != nil {
			out = core.Outcome{
				Status:         core.StatusError,
				RecordsWritten: committed,
				Source:         source,
				Detail:         fmt.Sprintf("ingestion panicked after %d records: %v", committed, r),
			}
		}
		c.logOutcome(ctx, out)
		c.publish(ctx, out)
	}()

	res, err := c.fetcher.FetchRecent(ctx)
	if err != nil {
		var upstream *core.UpstreamError
		if errors.As(err, &upstream) {
			return core.Outcome{Status: core.StatusError, Detail: upstream.Error()}
		}
		return core.Outcome{Status: core.StatusError, Detail: fmt.Sprintf("fetch: %v", err)}
	}

	switch res.Kind {
	case billing.FetchReal:
		records, source = res.Records, core.SourceReal
	case billing.FetchEmpty:
		c.logger.InfoContext(ctx, "No billing data for window, generating synthetic records",
			"days", c.cfg.FallbackDays, "services", len(c.cfg.Services))
		records, err = c.generator.Generate(c.cfg.FallbackDays, c.cfg.Services)
		if err != nil {
			return core.Outcome{Status: core.StatusError, Detail: fmt.Sprintf("generate fallback: %v", err)}
		}
		source = core.SourceSynthetic
	default:
		return core.Outcome{Status: core.StatusError, Detail: fmt.Sprintf("unknown fetch result %s", res.Kind)}
	}

	if err := c.write(ctx, records, &committed); err != nil {
		return core.Outcome{Status: core.StatusError, RecordsWritten: committed, Source: source, Detail: err.Error()}
	}
	return core.Outcome{Status: core.StatusSuccess, RecordsWritten: committed, Source: source, Detail: successDetail(committed, source)}
}

// write stores records chunk by chunk, advancing committed after each chunk.
func (c *Coordinator) write(ctx context.Context, records []core.CostRecord, committed *int) error {
	size := c.batchSize()
	for offset := 0; offset < len(records); offset += size {
		end := offset + size
		if end > len(records) {
			end = len(records)
		}
		chunk := records[offset:end]

		var err error
		for attempt := 0; attempt <= c.cfg.BatchRetries; attempt++ {
			if err = ctx.Err(); err != nil {
				break
			}
			if err = c.store.PutBatch(ctx, chunk); err == nil {
				break
			}
			c.logger.WarnContext(ctx, "Batch write failed",
				append(log.NewFields().WithBatch(offset, len(chunk)).WithError(err).ToSlice(), "attempt", attempt+1)...)
		}
		if err != nil {
			return &core.StoreWriteError{Offset: offset, Size: len(chunk), Committed: *committed, Err: err}
		}
		*committed += len(chunk)
	}
	return nil
}

func (c *Coordinator) logOutcome(ctx context.Context, o core.Outcome) {
	fields := log.NewFields().WithOperation(log.OpIngest).WithOutcome(o)
	if o.Failed() {
		c.logger.ErrorContext(ctx, "Ingestion failed", append(fields.ToSlice(), "detail", o.Detail)...)
		return
	}
	c.logger.InfoContext(ctx, "Ingestion completed", fields.ToSlice()...)
}

func (c *Coordinator) publish(ctx context.Context, o core.Outcome) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishOutcome(ctx, o); err != nil {
		c.logger.LogError(ctx, "Failed to publish ingestion outcome", err, log.OpPublish)
	}
}

func successDetail(n int, source core.DataSource) string {
	if source == core.SourceSynthetic {
		return fmt.Sprintf("%d dummy items inserted", n)
	}
	return fmt.Sprintf("%d real AWS items inserted", n)
}
