// Package email holds the outbound mail contract. Delivery transports live
// outside this service; LogMailer stands in for them.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer records messages in the log instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("email recipient is required")
	}
	m.logger.InfoContext(ctx, "email sent",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// DisplayName returns name when set, otherwise a greeting name derived from
// the local part of the address ("jane.doe@x" -> "Jane").
func DisplayName(name, address string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	local := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		local = address[:at]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "there"
	}
	return capitalize(parts[0])
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
