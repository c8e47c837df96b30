package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fraudintel/internal/platform/kafka/producer"
)

// Publisher delivers one message to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg producer.Message) error
}

// TxRunner scopes one relay batch. Row locks taken by Pending are held until
// the batch's published/failed marks commit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Relay moves pending outbox rows to Kafka. Delivery is at-least-once: a
// crash between publish and commit republishes the row, so consumers
// deduplicate on the outbox id header.
type Relay struct {
	store     Store
	publisher Publisher
	tx        TxRunner
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

type RelayOption func(*Relay)

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithTxRunner(tx TxRunner) RelayOption {
	return func(r *Relay) {
		r.tx = tx
	}
}

func NewRelay(store Store, publisher Publisher, opts ...RelayOption) (*Relay, error) {
	if store == nil {
		return nil, fmt.Errorf("outbox store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	r := &Relay{
		store:     store,
		publisher: publisher,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run relays batches on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.PublishPending(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox relay batch failed", "error", err)
			}
		}
	}
}

// PublishPending relays one batch and returns how many rows were published.
// A failed publish is recorded on the row and retried on the next batch.
func (r *Relay) PublishPending(ctx context.Context) (int, error) {
	published := 0
	batch := func(ctx context.Context) error {
		entries, err := r.store.Pending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := r.publisher.Publish(ctx, toMessage(e)); err != nil {
				r.logger.WarnContext(ctx, "outbox publish failed",
					"outbox_id", e.ID,
					"event_type", e.EventType,
					"attempts", e.Attempts+1,
					"error", err,
				)
				if markErr := r.store.MarkFailed(ctx, e.ID, err.Error()); markErr != nil {
					return markErr
				}
				continue
			}
			if err := r.store.MarkPublished(ctx, e.ID, r.now()); err != nil {
				return err
			}
			published++
		}
		return nil
	}

	var err error
	if r.tx != nil {
		err = r.tx.RunInTx(ctx, batch)
	} else {
		err = batch(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("relay outbox: %w", err)
	}
	return published, nil
}

func toMessage(e *Entry) producer.Message {
	return producer.Message{
		Topic: e.Topic,
		Key:   []byte(e.AggregateID),
		Value: e.Payload,
		Headers: map[string]string{
			"outbox_id":  e.ID.String(),
			"event_type": e.EventType,
		},
	}
}
