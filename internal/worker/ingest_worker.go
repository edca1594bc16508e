// Package worker schedules ingestion runs from a ticker and from AMQP triggers.
package worker

import (
	"context"
	"sync"
	"time"

	"costboard/internal/amqp"
	"costboard/internal/core"
	"costboard/internal/ingest"
	"costboard/internal/log"
)

// IngestWorker serializes runs so a tick and a trigger never overlap in one process.
type IngestWorker struct {
	runner   ingest.Runner
	interval time.Duration
	logger   *log.Logger

	mu   sync.Mutex
	last core.Outcome
	runs int
}

func NewIngestWorker(runner ingest.Runner, interval time.Duration, logger *log.Logger) *IngestWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &IngestWorker{runner: runner, interval: interval, logger: logger}
}

// RunOnce performs one ingestion, waiting for any run already in progress.
func (w *IngestWorker) RunOnce(ctx context.Context, trigger string) core.Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	w.logger.InfoContext(ctx, "Ingestion run starting", log.FieldTrigger, trigger)
	out := w.runner.Run(ctx)
	w.last = out
	w.runs++
	w.logger.InfoContext(ctx, "Ingestion run finished",
		append(log.NewFields().WithOutcome(out).ToSlice(),
			log.FieldTrigger, trigger,
			log.FieldDuration, time.Since(start).Milliseconds())...)
	return out
}

// HandleTrigger runs an ingestion for an AMQP trigger. A failed outcome is
// still acknowledged: it has been published and retrying would hit the same cause.
func (w *IngestWorker) HandleTrigger(ctx context.Context, msg *amqp.TriggerMessage) error {
	by := "amqp"
	if msg != nil && msg.RequestedBy != "" {
		by = "amqp:" + msg.RequestedBy
	}
	w.RunOnce(ctx, by)
	return ctx.Err()
}

// Run ticks every interval until ctx is done. With runOnStart the first run
// happens immediately.
func (w *IngestWorker) Run(ctx context.Context, runOnStart bool) error {
	if runOnStart {
		w.RunOnce(ctx, "startup")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Ingest ticker stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx, "ticker")
		}
	}
}

// Last returns the most recent outcome and how many runs have completed.
func (w *IngestWorker) Last() (core.Outcome, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.runs
}
