package consumer

import (
	"context"
	"log/slog"
)

// HeaderEventType names the header the router dispatches on.
const HeaderEventType = "event_type"

// Router dispatches messages to event-specific handlers. Several event types
// can share one topic; the producer sets the event_type header.
type Router struct {
	handlers map[string]Handler
	fallback Handler
	logger   *slog.Logger
}

// NewRouter creates an event router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback Handler) *Router {
	return &Router{
		handlers: make(map[string]Handler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for one event type.
func (r *Router) Register(eventType string, handler Handler) {
	r.handlers[eventType] = handler
}

// Handle routes the message to the handler registered for its event type.
func (r *Router) Handle(ctx context.Context, msg *Message) error {
	eventType := msg.Headers[HeaderEventType]
	handler, ok := r.handlers[eventType]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, msg)
		}
		r.logger.WarnContext(ctx, "no handler for event type, skipping message",
			"event_type", eventType,
			"topic", msg.Topic,
			"key", string(msg.Key),
		)
		// Committed so an unknown event does not block the partition.
		return nil
	}
	return handler.Handle(ctx, msg)
}
