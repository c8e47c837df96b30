package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fraudintel/internal/platform/outbox"
)

// LogSender logs notifications. Used when no broker is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "notification requested",
		"template", n.Template,
		"account_id", n.AccountID,
		"to", n.To,
	)
	return nil
}

// OutboxSender enqueues notifications in the transactional outbox. Called
// inside a transaction, the enqueue commits or rolls back with the caller's
// writes.
type OutboxSender struct {
	store outbox.Store
	topic string
}

func NewOutboxSender(store outbox.Store, topic string) *OutboxSender {
	return &OutboxSender{store: store, topic: topic}
}

func (s *OutboxSender) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	entry := &outbox.Entry{
		AggregateType: "account",
		AggregateID:   n.AccountID.String(),
		EventType:     EventRequested,
		Topic:         s.topic,
		Payload:       payload,
		CreatedAt:     n.RequestedAt,
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}
