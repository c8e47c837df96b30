// Package publisher accepts audit entries from request paths without
// blocking them.
package publisher

import (
	"context"
	"log/slog"

	id "fraudintel/pkg/domain"
	audit "fraudintel/pkg/platform/audit"
	"fraudintel/pkg/requestcontext"
)

// Publisher buffers entries for the audit worker. Emit never blocks and
// never fails; under sustained overload the oldest entries are dropped.
type Publisher struct {
	buffer *RingBuffer
	ready  chan struct{}
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func New(capacity int, opts ...Option) *Publisher {
	p := &Publisher{
		buffer: NewRingBuffer(capacity),
		ready:  make(chan struct{}, 1),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit assigns an ID and timestamp when missing and enqueues the entry.
func (p *Publisher) Emit(ctx context.Context, entry audit.SearchEntry) {
	if entry.ID.IsNil() {
		entry.ID = id.NewAuditEntryID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if p.buffer.Enqueue(entry) {
		p.logger.WarnContext(ctx, "audit buffer full, oldest entry dropped",
			"dropped_total", p.buffer.Dropped(),
		)
	}
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

// Ready signals that entries may be waiting.
func (p *Publisher) Ready() <-chan struct{} {
	return p.ready
}

func (p *Publisher) DequeueBatch(n int) []audit.SearchEntry {
	return p.buffer.DequeueBatch(n)
}

func (p *Publisher) Pending() int {
	return p.buffer.Len()
}

func (p *Publisher) Dropped() int64 {
	return p.buffer.Dropped()
}
