// Package worker persists buffered audit entries in the background.
package worker

import (
	"context"
	"log/slog"
	"time"

	audit "fraudintel/pkg/platform/audit"
	"fraudintel/pkg/platform/circuit"
)

// Source is the buffer the worker drains.
type Source interface {
	Ready() <-chan struct{}
	DequeueBatch(n int) []audit.SearchEntry
}

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 500 * time.Millisecond
	shutdownTimeout      = 5 * time.Second
)

// Worker drains a Source into a Store. While the breaker is open, batches are
// shed instead of retried so a failing store cannot grow memory without bound.
type Worker struct {
	source        Source
	store         audit.Store
	breaker       *circuit.Breaker
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	metrics       *Metrics
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.flushInterval = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) {
		w.breaker = b
	}
}

func New(source Source, store audit.Store, opts ...Option) *Worker {
	w := &Worker{
		source:        source,
		store:         store,
		breaker:       circuit.New("audit-store"),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run flushes on every ready signal and tick until ctx is cancelled, then
// makes a final bounded flush of whatever is still buffered.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			w.Flush(drainCtx)
			cancel()
			return ctx.Err()
		case <-w.source.Ready():
			w.Flush(ctx)
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush writes batches until the source is empty.
func (w *Worker) Flush(ctx context.Context) {
	for {
		batch := w.source.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			return
		}
		w.persist(ctx, batch)
	}
}

func (w *Worker) persist(ctx context.Context, batch []audit.SearchEntry) {
	if !w.breaker.Allow() {
		if w.metrics != nil {
			w.metrics.Shed.Add(float64(len(batch)))
		}
		return
	}
	if err := w.store.AppendBatch(ctx, batch); err != nil {
		change := w.breaker.RecordFailure()
		w.logger.ErrorContext(ctx, "failed to persist audit entries",
			"entries", len(batch),
			"error", err,
		)
		if change.Opened {
			w.logger.WarnContext(ctx, "audit store circuit opened", "breaker", w.breaker.Name())
		}
		if w.metrics != nil {
			w.metrics.Failed.Add(float64(len(batch)))
			w.metrics.SetBreakerState(w.breaker.IsOpen())
		}
		return
	}
	change := w.breaker.RecordSuccess()
	if change.Closed {
		w.logger.InfoContext(ctx, "audit store circuit closed", "breaker", w.breaker.Name())
	}
	if w.metrics != nil {
		w.metrics.Persisted.Add(float64(len(batch)))
		w.metrics.SetBreakerState(w.breaker.IsOpen())
	}
}
