package notification

//go:generate mockgen -source=notification.go -destination=mocks/mocks.go -package=mocks Sender

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fraudintel/internal/platform/kafka/consumer"
	"fraudintel/internal/platform/outbox"
	id "fraudintel/pkg/domain"
	"fraudintel/pkg/email"
)

// =============================================================================
// Notification Pipeline Test Suite
// =============================================================================
// Justification for unit tests: the outbox relay is at-least-once, so the
// dispatcher must absorb duplicates. Templates must render every parameter
// the usage engine provides.

type NotificationSuite struct {
	suite.Suite
	mailer     *capturingMailer
	dispatcher *Dispatcher
}

func TestNotificationSuite(t *testing.T) {
	suite.Run(t, new(NotificationSuite))
}

type capturingMailer struct {
	sent []email.Message
	err  error
}

func (m *capturingMailer) Send(_ context.Context, msg email.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (s *NotificationSuite) SetupTest() {
	s.mailer = &capturingMailer{}
	var err error
	s.dispatcher, err = NewDispatcher(s.mailer)
	s.Require().NoError(err)
}

func lowQuota(template Template) Notification {
	return Notification{
		Template:  template,
		AccountID: id.NewAccountID(),
		To:        "owner@example.com",
		Params: map[string]string{
			"name":      "Owner",
			"email":     "owner@example.com",
			"used":      "90",
			"limit":     "100",
			"remaining": "10",
			"percent":   "90",
		},
		RequestedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *NotificationSuite) message(n Notification, outboxID string) *consumer.Message {
	payload, err := json.Marshal(n)
	s.Require().NoError(err)
	return &consumer.Message{
		Topic:   "notifications",
		Key:     []byte(n.AccountID.String()),
		Value:   payload,
		Headers: map[string]string{"outbox_id": outboxID, "event_type": EventRequested},
	}
}

// =============================================================================
// Render Tests
// =============================================================================

func (s *NotificationSuite) TestRender() {
	s.Run("individual", func() {
		msg, err := Render(lowQuota(TemplateLowQuotaIndividual))
		s.Require().NoError(err)
		s.Equal("owner@example.com", msg.To)
		s.Equal("You have used 90% of your searches", msg.Subject)
		s.Contains(msg.Body, "Hi Owner")
		s.Contains(msg.Body, "90 of 100")
		s.Contains(msg.Body, "10 remain")
	})

	s.Run("enterprise", func() {
		msg, err := Render(lowQuota(TemplateLowQuotaEnterprise))
		s.Require().NoError(err)
		s.Contains(msg.Subject, "organization")
		s.Contains(msg.Body, "shared pool")
	})

	s.Run("unknown template", func() {
		_, err := Render(Notification{Template: "nope"})
		s.Error(err)
	})
}

// =============================================================================
// Dispatcher Tests
// =============================================================================

func (s *NotificationSuite) TestDispatcher_DeliversOnce() {
	msg := s.message(lowQuota(TemplateLowQuotaIndividual), "outbox-1")

	s.Require().NoError(s.dispatcher.Handle(context.Background(), msg))
	s.Require().NoError(s.dispatcher.Handle(context.Background(), msg))

	s.Len(s.mailer.sent, 1)
}

func (s *NotificationSuite) TestDispatcher_MalformedIsCommitted() {
	err := s.dispatcher.Handle(context.Background(), &consumer.Message{Value: []byte("{not json")})
	s.NoError(err)
	s.Empty(s.mailer.sent)
}

func (s *NotificationSuite) TestDispatcher_MailerFailureIsRetried() {
	msg := s.message(lowQuota(TemplateLowQuotaEnterprise), "outbox-2")
	s.mailer.err = errors.New("smtp down")

	s.Error(s.dispatcher.Handle(context.Background(), msg))

	s.mailer.err = nil
	s.NoError(s.dispatcher.Handle(context.Background(), msg))
	s.Len(s.mailer.sent, 1, "a failed attempt is not marked as seen")
}

// =============================================================================
// Sender Tests
// =============================================================================

func (s *NotificationSuite) TestOutboxSender() {
	store := outbox.NewInMemoryStore()
	sender := NewOutboxSender(store, "notifications")
	n := lowQuota(TemplateLowQuotaIndividual)

	s.Require().NoError(sender.Send(context.Background(), n))

	entries := store.All()
	s.Require().Len(entries, 1)
	s.Equal(EventRequested, entries[0].EventType)
	s.Equal("notifications", entries[0].Topic)
	s.Equal(n.AccountID.String(), entries[0].AggregateID)

	var decoded Notification
	s.Require().NoError(json.Unmarshal(entries[0].Payload, &decoded))
	s.Equal(n.Template, decoded.Template)
	s.Equal(n.Params, decoded.Params)
}
