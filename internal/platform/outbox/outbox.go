// Package outbox implements the transactional outbox: rows written in the
// same transaction as a state change, relayed to Kafka afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one pending message.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       json.RawMessage
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// Store persists entries. Append joins the caller's transaction when one is
// carried in ctx.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	// Pending returns up to limit unpublished entries, oldest first.
	Pending(ctx context.Context, limit int) ([]*Entry, error)
	MarkPublished(ctx context.Context, entryID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, entryID uuid.UUID, reason string) error
}
