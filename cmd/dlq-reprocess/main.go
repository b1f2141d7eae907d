// Команда dlq-reprocess возвращает события из DLQ в рабочий topic.
// По умолчанию работает всухую и только логирует кандидатов; -execute отправляет их.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
	defaultClientID    = "storefront-dlq-reprocess"
)

type config struct {
	brokers  []string
	clientID string
	opts     kafka.ReplayOptions
}

// deps — подключения к Kafka, которые нужны Replayer.
type deps struct {
	client   kafka.OffsetClient
	source   kafka.PartitionSource
	producer *kafka.Producer
	close    func()
}

type connectFunc func(cfg config) (deps, error)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := parseConfig(os.Args[1:], os.Stderr, os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.WithError(err).Error("invalid arguments")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := run(ctx, cfg, connectSarama)
	if err != nil {
		log.WithError(err).Error("dlq replay failed")
		os.Exit(1)
	}
	fmt.Printf("processed=%d replayed=%d skipped=%d execute=%t\n",
		stats.Processed, stats.Replayed, stats.Skipped, cfg.opts.Execute)
}

// parseConfig читает флаги; брокеры берутся из -brokers,
// STOREFRONT_KAFKA_BROKERS или KAFKA_BROKERS.
func parseConfig(args []string, output io.Writer, getenv func(string) string) (config, error) {
	fs := flag.NewFlagSet("dlq-reprocess", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		cfg        config
		brokersRaw string
	)
	fs.StringVar(&brokersRaw, "brokers", "", "comma-separated kafka brokers")
	fs.StringVar(&cfg.clientID, "client-id", defaultClientID, "kafka client id")
	fs.StringVar(&cfg.opts.SourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "dlq topic to read")
	fs.StringVar(&cfg.opts.TargetTopic, "target-topic", kafka.TopicOrderEvents, "topic for events without original topic")
	fs.IntVar(&cfg.opts.Limit, "limit", defaultReplayLimit, "maximum number of dlq messages to process")
	fs.BoolVar(&cfg.opts.Execute, "execute", false, "publish events instead of a dry run")
	fs.BoolVar(&cfg.opts.FromNewest, "from-newest", false, "start from the newest messages of each partition")
	fs.DurationVar(&cfg.opts.IdleTimeout, "idle-timeout", defaultIdleTimeout, "stop reading a partition after this much silence")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = firstNonEmpty(getenv("STOREFRONT_KAFKA_BROKERS"), getenv("KAFKA_BROKERS"))
	}
	cfg.brokers = parseBrokers(brokersRaw)
	if len(cfg.brokers) == 0 {
		return config{}, errors.New("kafka brokers are required (-brokers or STOREFRONT_KAFKA_BROKERS)")
	}
	if err := cfg.opts.Validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config, connect connectFunc) (kafka.ReplayStats, error) {
	d, err := connect(cfg)
	if err != nil {
		return kafka.ReplayStats{}, err
	}
	if d.close != nil {
		defer d.close()
	}

	replayer, err := kafka.NewReplayer(d.client, d.source, d.producer, cfg.opts)
	if err != nil {
		return kafka.ReplayStats{}, err
	}
	return replayer.Run(ctx)
}

// connectSarama открывает клиент и consumer; producer только для -execute.
func connectSarama(cfg config) (deps, error) {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.clientID
	sc.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.brokers, sc)
	if err != nil {
		return deps{}, fmt.Errorf("create kafka client: %w", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return deps{}, fmt.Errorf("create kafka consumer: %w", err)
	}

	var producer *kafka.Producer
	if cfg.opts.Execute {
		producer, err = kafka.NewProducer(cfg.brokers, cfg.clientID)
		if err != nil {
			_ = consumer.Close()
			_ = client.Close()
			return deps{}, err
		}
	}

	return deps{
		client:   client,
		source:   kafka.SaramaPartitionSource{Consumer: consumer},
		producer: producer,
		close: func() {
			if producer != nil {
				_ = producer.Close()
			}
			_ = consumer.Close()
			_ = client.Close()
		},
	}, nil
}

func parseBrokers(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
