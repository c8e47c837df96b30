//go:build integration

package notification

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fraudintel/internal/platform/kafka"
	"fraudintel/internal/platform/kafka/consumer"
	"fraudintel/internal/platform/kafka/producer"
	"fraudintel/internal/platform/outbox"
	"fraudintel/pkg/email"
	"fraudintel/pkg/testutil/containers"
)

// =============================================================================
// Notification Pipeline Integration Suite
// =============================================================================
// Justification for integration tests: the outbox relay, the Kafka headers
// and the consumer router only agree on a wire contract when a real broker
// carries the record. Unit tests cover each side against fakes.

type PipelineSuite struct {
	suite.Suite
	brokers []string
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
}

// channelMailer hands delivered messages to the test goroutine.
type channelMailer struct {
	delivered chan email.Message
}

func (m *channelMailer) Send(_ context.Context, msg email.Message) error {
	m.delivered <- msg
	return nil
}

func (s *PipelineSuite) TestOutboxToDispatcher() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	topic := fmt.Sprintf("notifications-%s", uuid.NewString())
	prod, err := producer.New(s.brokers)
	s.Require().NoError(err)
	defer prod.Close()
	s.Require().NoError(kafka.EnsureTopics(ctx, prod.Client(), 1, 1, topic))

	store := outbox.NewInMemoryStore()
	sender := NewOutboxSender(store, topic)
	s.Require().NoError(sender.Send(ctx, lowQuota(TemplateLowQuotaIndividual)))

	relay, err := outbox.NewRelay(store, prod)
	s.Require().NoError(err)
	published, err := relay.PublishPending(ctx)
	s.Require().NoError(err)
	s.Equal(1, published)

	mailer := &channelMailer{delivered: make(chan email.Message, 1)}
	dispatcher, err := NewDispatcher(mailer)
	s.Require().NoError(err)
	router := consumer.NewRouter(slog.New(slog.DiscardHandler), nil)
	router.Register(EventRequested, dispatcher)

	cons, err := consumer.New(s.brokers, "pipeline-"+topic, []string{topic}, router)
	s.Require().NoError(err)
	defer cons.Close()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = cons.Run(runCtx) }()

	select {
	case msg := <-mailer.delivered:
		s.Equal("owner@example.com", msg.To)
		s.Contains(msg.Body, "10")
	case <-ctx.Done():
		s.FailNow("notification was not delivered")
	}

	entries := store.All()
	s.Require().Len(entries, 1)
	s.NotNil(entries[0].PublishedAt)
}
