package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// EventDeadLetter — тип события-обёртки, которое outbox-воркер кладёт в DLQ.
const EventDeadLetter = "outbox.dead_letter"

// ErrNotDeadLetter — сообщение DLQ не содержит исходного события.
var ErrNotDeadLetter = errors.New("message is not an outbox dead letter")

// OffsetClient — часть sarama.Client, нужная для чтения границ партиций.
type OffsetClient interface {
	GetOffset(topic string, partition int32, time int64) (int64, error)
	Partitions(topic string) ([]int32, error)
}

// PartitionConsumer — часть sarama.PartitionConsumer.
type PartitionConsumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

// PartitionSource открывает чтение партиции.
type PartitionSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (PartitionConsumer, error)
}

// SaramaPartitionSource адаптирует sarama.Consumer к PartitionSource.
type SaramaPartitionSource struct {
	Consumer sarama.Consumer
}

func (s SaramaPartitionSource) ConsumePartition(topic string, partition int32, offset int64) (PartitionConsumer, error) {
	return s.Consumer.ConsumePartition(topic, partition, offset)
}

// ReplayOptions — параметры переотправки DLQ.
type ReplayOptions struct {
	SourceTopic string
	TargetTopic string
	Limit       int
	Execute     bool
	FromNewest  bool
	IdleTimeout time.Duration
}

func (o ReplayOptions) Validate() error {
	switch {
	case strings.TrimSpace(o.SourceTopic) == "":
		return errors.New("source topic is required")
	case strings.TrimSpace(o.TargetTopic) == "":
		return errors.New("target topic is required")
	case o.Limit <= 0:
		return errors.New("limit must be > 0")
	case o.IdleTimeout <= 0:
		return errors.New("idle timeout must be > 0")
	}
	return nil
}

// ReplayStats — итог прохода по DLQ.
type ReplayStats struct {
	Processed int
	Replayed  int
	Skipped   int
}

func (s *ReplayStats) add(other ReplayStats) {
	s.Processed += other.Processed
	s.Replayed += other.Replayed
	s.Skipped += other.Skipped
}

// Replayer читает DLQ и возвращает исходные события в рабочий topic.
// Без Execute только логирует кандидатов.
type Replayer struct {
	client   OffsetClient
	source   PartitionSource
	producer *Producer
	opts     ReplayOptions
	logger   *log.Entry
}

// NewReplayer создаёт Replayer. producer обязателен только при Execute.
func NewReplayer(client OffsetClient, source PartitionSource, producer *Producer, opts ReplayOptions) (*Replayer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if client == nil || source == nil {
		return nil, errors.New("kafka client and consumer are required")
	}
	if opts.Execute && producer == nil {
		return nil, errors.New("producer is required in execute mode")
	}
	return &Replayer{
		client:   client,
		source:   source,
		producer: producer,
		opts:     opts,
		logger:   log.WithField("component", "dlq-replay"),
	}, nil
}

// Run проходит партиции по возрастанию номера, пока не наберёт Limit сообщений.
func (r *Replayer) Run(ctx context.Context) (ReplayStats, error) {
	var total ReplayStats

	partitions, err := r.client.Partitions(r.opts.SourceTopic)
	if err != nil {
		return total, fmt.Errorf("get partitions for topic %s: %w", r.opts.SourceTopic, err)
	}
	slices.Sort(partitions)

	for _, partition := range partitions {
		if total.Processed >= r.opts.Limit {
			break
		}
		stats, err := r.replayPartition(ctx, partition, r.opts.Limit-total.Processed)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}

	r.logger.WithFields(log.Fields{
		"execute":   r.opts.Execute,
		"processed": total.Processed,
		"replayed":  total.Replayed,
		"skipped":   total.Skipped,
	}).Info("dlq replay finished")
	return total, nil
}

func (r *Replayer) replayPartition(ctx context.Context, partition int32, limit int) (ReplayStats, error) {
	var stats ReplayStats

	oldest, err := r.client.GetOffset(r.opts.SourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return stats, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := r.client.GetOffset(r.opts.SourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return stats, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return stats, nil
	}

	start := oldest
	if r.opts.FromNewest {
		start = max(newest-int64(limit), oldest)
	}

	pc, err := r.source.ConsumePartition(r.opts.SourceTopic, partition, start)
	if err != nil {
		return stats, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(r.opts.IdleTimeout)
	defer idle.Stop()

	for stats.Processed < limit {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case cerr := <-pc.Errors():
			if cerr != nil {
				return stats, fmt.Errorf("partition %d consumer error: %w", partition, cerr)
			}
		case <-idle.C:
			return stats, nil
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil || msg.Offset >= newest {
				return stats, nil
			}
			idle.Reset(r.opts.IdleTimeout)

			stats.Processed++
			if err := r.replayMessage(msg); err != nil {
				if errors.Is(err, ErrNotDeadLetter) {
					stats.Skipped++
					r.logger.WithError(err).WithFields(log.Fields{
						"partition": msg.Partition,
						"offset":    msg.Offset,
					}).Warn("skip unsupported dlq message")
					continue
				}
				return stats, err
			}
			stats.Replayed++

			if msg.Offset+1 >= newest {
				return stats, nil
			}
		}
	}
	return stats, nil
}

func (r *Replayer) replayMessage(msg *sarama.ConsumerMessage) error {
	dead, err := DecodeDeadLetter(msg.Value)
	if err != nil {
		return err
	}

	original := Envelope{
		ID:            dead.OutboxID,
		AggregateType: dead.AggregateType,
		AggregateID:   dead.AggregateID,
		EventType:     dead.EventType,
		Payload:       dead.Payload,
		PublishedAt:   time.Now().UTC(),
	}
	key := original.AggregateID
	if key == "" {
		key = original.ID
	}
	topic := r.opts.TargetTopic
	if dead.OriginalTopic != "" {
		topic = dead.OriginalTopic
	}

	if !r.opts.Execute {
		r.logger.WithFields(log.Fields{
			"partition":    msg.Partition,
			"offset":       msg.Offset,
			"target_topic": topic,
			"key":          key,
			"event_type":   original.EventType,
		}).Info("dlq replay candidate")
		return nil
	}

	if err := r.producer.PublishEvent(topic, key, original,
		sarama.RecordHeader{Key: []byte(HeaderEventType), Value: []byte(original.EventType)},
	); err != nil {
		return fmt.Errorf("publish replay message: %w", err)
	}
	return nil
}

// DecodeDeadLetter разбирает запись DLQ: envelope с payload типа DeadLetter.
func DecodeDeadLetter(raw []byte) (DeadLetter, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return DeadLetter{}, fmt.Errorf("%w: %v", ErrNotDeadLetter, err)
	}
	if env.EventType != EventDeadLetter || len(env.Payload) == 0 {
		return DeadLetter{}, fmt.Errorf("%w: event type %q", ErrNotDeadLetter, env.EventType)
	}

	var dead DeadLetter
	if err := json.Unmarshal(env.Payload, &dead); err != nil {
		return DeadLetter{}, fmt.Errorf("%w: decode payload: %v", ErrNotDeadLetter, err)
	}
	if len(dead.Payload) == 0 || dead.EventType == "" {
		return DeadLetter{}, fmt.Errorf("%w: original event is missing", ErrNotDeadLetter)
	}
	return dead, nil
}
