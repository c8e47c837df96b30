package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"fraudintel/internal/platform/kafka/consumer"
	"fraudintel/pkg/email"
)

const seenCapacity = 4096

// Dispatcher consumes requested notifications from Kafka and delivers them
// through a Mailer. The relay is at-least-once, so recently seen outbox ids
// are skipped.
type Dispatcher struct {
	mailer email.Mailer
	logger *slog.Logger

	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

type DispatcherOption func(*Dispatcher)

func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func NewDispatcher(mailer email.Mailer, opts ...DispatcherOption) (*Dispatcher, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	d := &Dispatcher{
		mailer: mailer,
		logger: slog.New(slog.DiscardHandler),
		seen:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Handle implements consumer.Handler. Malformed payloads are logged and
// committed; mailer failures are returned so the record is redelivered.
func (d *Dispatcher) Handle(ctx context.Context, msg *consumer.Message) error {
	outboxID := msg.Headers["outbox_id"]
	if outboxID != "" && d.wasSeen(outboxID) {
		d.logger.DebugContext(ctx, "duplicate notification skipped", "outbox_id", outboxID)
		return nil
	}

	var n Notification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		d.logger.WarnContext(ctx, "malformed notification payload",
			"outbox_id", outboxID,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	rendered, err := Render(n)
	if err != nil {
		d.logger.WarnContext(ctx, "notification not renderable",
			"outbox_id", outboxID,
			"template", n.Template,
			"error", err,
		)
		return nil
	}
	if err := d.mailer.Send(ctx, rendered); err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}

	if outboxID != "" {
		d.markSeen(outboxID)
	}
	d.logger.InfoContext(ctx, "notification delivered",
		"template", n.Template,
		"account_id", n.AccountID,
	)
	return nil
}

func (d *Dispatcher) wasSeen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[key]
	return ok
}

func (d *Dispatcher) markSeen(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return
	}
	d.seen[key] = struct{}{}
	d.order = append(d.order, key)
	if len(d.order) > seenCapacity {
		delete(d.seen, d.order[0])
		d.order = d.order[1:]
	}
}
