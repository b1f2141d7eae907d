package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// publishers — куда outbox отправляет события и мёртвые письма.
type publishers struct {
	events   domain.OutboxPublisher
	dlq      domain.OutboxPublisher
	producer *kafka.Producer
}

// initPublishers подключает Kafka, если заданы брокеры. Без брокеров или при
// ошибке подключения события пишутся в лог, а DLQ не используется.
func initPublishers(cfg Config, logger *log.Entry) publishers {
	fallback := publishers{events: kafka.NewLogPublisher(logger.WithField("publisher", "log"))}
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka brokers are not configured, outbox events go to the log")
		return fallback
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaClientID)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return fallback
	}
	logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")

	return publishers{
		events:   kafka.NewOutboxPublisher(producer, kafka.TopicOrderEvents),
		dlq:      kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue),
		producer: producer,
	}
}

func (p publishers) close(logger *log.Entry) {
	if p.producer == nil {
		return
	}
	if err := p.producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}
