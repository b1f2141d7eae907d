package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func enqueue(t *testing.T, store *memory.Store, msgs ...domain.OutboxMessage) {
	t.Helper()
	for _, msg := range msgs {
		if _, err := store.Repos().Outbox.Enqueue(context.Background(), msg); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	enqueue(t, store,
		domain.OutboxMessage{AggregateType: domain.AggregateOrder, AggregateID: "order-1", EventType: domain.EventOrderCreated, Payload: []byte(`{"n":1}`)},
		domain.OutboxMessage{AggregateType: domain.AggregateOrder, AggregateID: "order-1", EventType: domain.EventOrderStatusChanged, Payload: []byte(`{"n":2}`)},
	)
	publisher := &stubPublisher{}

	worker := NewWorker(store.Repos().Outbox, publisher,
		WithRetryBaseDelay(0),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
	)

	if sent := worker.ProcessOnce(context.Background()); sent != 2 {
		t.Fatalf("expected 2 sent events, got %d", sent)
	}
	if got := publisher.eventTypes(); len(got) != 2 || got[0] != domain.EventOrderCreated || got[1] != domain.EventOrderStatusChanged {
		t.Fatalf("events must be published in enqueue order, got %v", got)
	}
	if pending := store.AllPending(); len(pending) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(pending))
	}
	if sent := worker.ProcessOnce(context.Background()); sent != 0 {
		t.Fatalf("sent events must not be republished, got %d", sent)
	}
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	enqueue(t, store, domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   "order-2",
		EventType:     domain.EventOrderCanceled,
		Payload:       []byte(`{"reason":"changed mind"}`),
	})
	publisher := &stubPublisher{err: errors.New("broker down")}
	dlqPublisher := &stubPublisher{}

	worker := NewWorker(store.Repos().Outbox, publisher,
		WithDLQPublisher(dlqPublisher),
		WithEventsTopic(kafka.TopicOrderEvents),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	if sent := worker.ProcessOnce(context.Background()); sent != 0 {
		t.Fatalf("expected nothing sent, got %d", sent)
	}
	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if pending := store.AllPending(); len(pending) != 0 {
		t.Fatalf("failed message must leave the pending backlog, got %d", len(pending))
	}

	dlq := dlqPublisher.published()
	if len(dlq) != 1 || dlq[0].EventType != kafka.EventDeadLetter {
		t.Fatalf("expected one dead letter, got %+v", dlq)
	}
	raw, err := json.Marshal(kafka.EnvelopeOf(dlq[0], time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	dead, err := kafka.DecodeDeadLetter(raw)
	if err != nil {
		t.Fatalf("dead letter is not replayable: %v", err)
	}
	if dead.EventType != domain.EventOrderCanceled || dead.AggregateID != "order-2" || dead.PublishError == "" {
		t.Fatalf("unexpected dead letter: %+v", dead)
	}
	if dead.OriginalTopic != kafka.TopicOrderEvents {
		t.Fatalf("dead letter must keep the original topic, got %q", dead.OriginalTopic)
	}
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	enqueue(t, store, domain.OutboxMessage{AggregateID: "order-3", EventType: domain.EventOrderPaymentUpdated})
	publisher := &stubPublisher{
		sequenceErrors: []error{errors.New("attempt 1"), errors.New("attempt 2"), nil},
	}

	worker := NewWorker(store.Repos().Outbox, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))

	if sent := worker.ProcessOnce(context.Background()); sent != 1 {
		t.Fatalf("expected 1 sent event, got %d", sent)
	}
	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
}

func TestWorker_RetryBackoff(t *testing.T) {
	t.Parallel()

	worker := NewWorker(nil, nil, WithRetryBaseDelay(10*time.Millisecond))
	for attempt, want := range map[int]time.Duration{1: 10 * time.Millisecond, 2: 20 * time.Millisecond, 4: 80 * time.Millisecond} {
		if got := worker.retryBackoff(attempt); got != want {
			t.Fatalf("attempt %d: expected %v, got %v", attempt, want, got)
		}
	}
	if got := NewWorker(nil, nil, WithRetryBaseDelay(0)).retryBackoff(3); got != 0 {
		t.Fatalf("zero base delay must disable backoff, got %v", got)
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := NewWorker(memory.NewStore().Repos().Outbox, &stubPublisher{},
		WithPollInterval(5*time.Millisecond),
		WithRetryBaseDelay(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	callCount      int
	sent           []domain.OutboxMessage
}

func (s *stubPublisher) Publish(msg domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	err := s.err
	if len(s.sequenceErrors) > 0 {
		err = s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
	}
	if err == nil {
		s.sent = append(s.sent, msg)
	}
	return err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

func (s *stubPublisher) published() []domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutboxMessage(nil), s.sent...)
}

func (s *stubPublisher) eventTypes() []string {
	var out []string
	for _, msg := range s.published() {
		out = append(out, msg.EventType)
	}
	return out
}

var _ domain.OutboxPublisher = (*stubPublisher)(nil)
