package kafka

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func newTestProducer(t *testing.T) (*Producer, *mocks.SyncProducer) {
	t.Helper()
	mock := mocks.NewSyncProducer(t, nil)
	return NewProducerWith(mock, log.WithField("component", "kafka-test")), mock
}

func TestOutboxPublisher_PublishEnvelope(t *testing.T) {
	t.Parallel()

	producer, mock := newTestProducer(t)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env Envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		if env.ID != "outbox-1" || env.AggregateID != "order-123" || env.EventType != domain.EventOrderCreated {
			return fmt.Errorf("unexpected envelope: %+v", env)
		}
		if string(env.Payload) != `{"orderCode":"ORD1"}` {
			return fmt.Errorf("unexpected payload: %s", env.Payload)
		}
		if env.PublishedAt.IsZero() {
			return fmt.Errorf("published_at is empty")
		}
		return nil
	})

	publisher := NewOutboxPublisher(producer, TopicOrderEvents)
	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "order-123",
		EventType:     domain.EventOrderCreated,
		Payload:       []byte(`{"orderCode":"ORD1"}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := producer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	producer, mock := newTestProducer(t)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(producer, "")
	err := publisher.Publish(domain.OutboxMessage{ID: "outbox-2", AggregateID: "order-234", EventType: domain.EventOrderCanceled})
	if err == nil {
		t.Fatal("expected publish error, got nil")
	}
	if err := mock.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, TopicOrderEvents)
	if err := publisher.Publish(domain.OutboxMessage{ID: "outbox-3"}); err == nil {
		t.Fatal("expected error for nil producer")
	}
}

func TestEnvelopeOf_EmptyPayloadIsNull(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	env := EnvelopeOf(domain.OutboxMessage{ID: "x", EventType: domain.EventOrderDeleted}, at)

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"x","aggregate_type":"","aggregate_id":"","event_type":"order.deleted","payload":null,"published_at":"2024-06-01T10:00:00Z"}`
	if string(data) != want {
		t.Fatalf("unexpected envelope json:\n got %s\nwant %s", data, want)
	}
}

func TestLogPublisher_NeverFails(t *testing.T) {
	t.Parallel()

	if err := NewLogPublisher(nil).Publish(domain.OutboxMessage{ID: "outbox-4"}); err != nil {
		t.Fatalf("log publisher returned error: %v", err)
	}
}
