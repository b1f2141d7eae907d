package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type stubOffsetClient struct {
	partitions []int32
	oldest     map[int32]int64
	newest     map[int32]int64
	err        error
}

func (s *stubOffsetClient) Partitions(string) ([]int32, error) {
	return s.partitions, s.err
}

func (s *stubOffsetClient) GetOffset(_ string, partition int32, marker int64) (int64, error) {
	if marker == sarama.OffsetOldest {
		return s.oldest[partition], nil
	}
	return s.newest[partition], nil
}

type stubPartitionConsumer struct {
	messages chan *sarama.ConsumerMessage
	errors   chan *sarama.ConsumerError
}

func (s *stubPartitionConsumer) Messages() <-chan *sarama.ConsumerMessage { return s.messages }
func (s *stubPartitionConsumer) Errors() <-chan *sarama.ConsumerError     { return s.errors }
func (s *stubPartitionConsumer) Close() error                             { return nil }

type stubSource struct {
	byPartition map[int32][]*sarama.ConsumerMessage
	starts      map[int32]int64
}

func (s *stubSource) ConsumePartition(_ string, partition int32, offset int64) (PartitionConsumer, error) {
	if s.starts == nil {
		s.starts = map[int32]int64{}
	}
	s.starts[partition] = offset
	msgs := s.byPartition[partition]
	pc := &stubPartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage, len(msgs)),
		errors:   make(chan *sarama.ConsumerError),
	}
	for _, m := range msgs {
		if m.Offset >= offset {
			pc.messages <- m
		}
	}
	return pc, nil
}

func deadLetterValue(t *testing.T, orderID string) []byte {
	t.Helper()
	dead := DeadLetter{
		OutboxID:      "outbox-" + orderID,
		AggregateType: domain.AggregateOrder,
		AggregateID:   orderID,
		EventType:     domain.EventOrderStatusChanged,
		Payload:       json.RawMessage(`{"to":"shipping"}`),
		PublishError:  "broker unavailable",
	}
	payload, err := json.Marshal(dead)
	if err != nil {
		t.Fatal(err)
	}
	env, err := json.Marshal(Envelope{ID: "dlq-" + orderID, EventType: EventDeadLetter, Payload: payload})
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func replayOpts(execute bool) ReplayOptions {
	return ReplayOptions{
		SourceTopic: TopicDeadLetterQueue,
		TargetTopic: TopicOrderEvents,
		Limit:       10,
		Execute:     execute,
		IdleTimeout: 50 * time.Millisecond,
	}
}

func TestDecodeDeadLetter(t *testing.T) {
	t.Parallel()

	dead, err := DecodeDeadLetter(deadLetterValue(t, "order-1"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dead.AggregateID != "order-1" || dead.EventType != domain.EventOrderStatusChanged {
		t.Fatalf("unexpected dead letter: %+v", dead)
	}

	for _, raw := range []string{`not json`, `{"event_type":"order.created","payload":{}}`, `{"event_type":"outbox.dead_letter","payload":{"outbox_id":"x"}}`} {
		if _, err := DecodeDeadLetter([]byte(raw)); !errors.Is(err, ErrNotDeadLetter) {
			t.Fatalf("expected ErrNotDeadLetter for %s, got %v", raw, err)
		}
	}
}

func TestReplayOptions_Validate(t *testing.T) {
	t.Parallel()

	cases := []ReplayOptions{
		{TargetTopic: "t", Limit: 1, IdleTimeout: time.Second},
		{SourceTopic: "s", Limit: 1, IdleTimeout: time.Second},
		{SourceTopic: "s", TargetTopic: "t", IdleTimeout: time.Second},
		{SourceTopic: "s", TargetTopic: "t", Limit: 1},
	}
	for i, opts := range cases {
		if err := opts.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if err := replayOpts(false).Validate(); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}
}

func TestReplayer_DryRunSkipsForeignMessages(t *testing.T) {
	t.Parallel()

	client := &stubOffsetClient{
		partitions: []int32{1, 0},
		oldest:     map[int32]int64{0: 0, 1: 0},
		newest:     map[int32]int64{0: 2, 1: 1},
	}
	source := &stubSource{byPartition: map[int32][]*sarama.ConsumerMessage{
		0: {
			{Partition: 0, Offset: 0, Value: deadLetterValue(t, "order-1")},
			{Partition: 0, Offset: 1, Value: []byte(`garbage`)},
		},
		1: {
			{Partition: 1, Offset: 0, Value: deadLetterValue(t, "order-2")},
		},
	}}

	replayer, err := NewReplayer(client, source, nil, replayOpts(false))
	if err != nil {
		t.Fatalf("new replayer: %v", err)
	}
	stats, err := replayer.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats != (ReplayStats{Processed: 3, Replayed: 2, Skipped: 1}) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestReplayer_ExecutePublishesOriginalEnvelope(t *testing.T) {
	t.Parallel()

	producer, mock := newTestProducer(t)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env Envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		if env.ID != "outbox-order-9" || env.AggregateID != "order-9" || env.EventType != domain.EventOrderStatusChanged {
			return fmt.Errorf("unexpected replayed envelope: %+v", env)
		}
		return nil
	})

	client := &stubOffsetClient{
		partitions: []int32{0},
		oldest:     map[int32]int64{0: 4},
		newest:     map[int32]int64{0: 5},
	}
	source := &stubSource{byPartition: map[int32][]*sarama.ConsumerMessage{
		0: {{Partition: 0, Offset: 4, Value: deadLetterValue(t, "order-9")}},
	}}

	opts := replayOpts(true)
	opts.FromNewest = true
	replayer, err := NewReplayer(client, source, producer, opts)
	if err != nil {
		t.Fatalf("new replayer: %v", err)
	}
	stats, err := replayer.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Replayed != 1 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if source.starts[0] != 4 {
		t.Fatalf("from-newest start must be clamped to oldest offset, got %d", source.starts[0])
	}
	if err := producer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReplayer_RequiresProducerForExecute(t *testing.T) {
	t.Parallel()

	if _, err := NewReplayer(&stubOffsetClient{}, &stubSource{}, nil, replayOpts(true)); err == nil {
		t.Fatal("expected error without producer in execute mode")
	}
}

func TestReplayer_PartitionsError(t *testing.T) {
	t.Parallel()

	replayer, err := NewReplayer(&stubOffsetClient{err: sarama.ErrOutOfBrokers}, &stubSource{}, nil, replayOpts(false))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := replayer.Run(context.Background()); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected partitions error, got %v", err)
	}
}
