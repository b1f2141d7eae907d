package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"

	envPrefix = "STOREFRONT_"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	// Production включает JSON-логи и скрывает stack trace в ответах.
	Production bool
	LogLevel   log.Level

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers  []string
	KafkaClientID string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxMaxPending и OutboxMaxAge — пороги, после которых health становится degraded.
	OutboxMaxPending int
	OutboxMaxAge     time.Duration

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int

	JWTSecret string
	JWTIssuer string
	JWTLeeway time.Duration

	CORSOrigins   []string
	HTTPBodyLimit string

	PaymentRedirectURL string
	PaymentBankAccount string

	CategoryCacheTTL time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultConfig возвращает настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                    ":8080",
		GRPCAddr:                    ":50051",
		MetricsAddr:                 ":9090",
		LogLevel:                    log.InfoLevel,
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		KafkaClientID:               "storefront",
		OutboxPollInterval:          time.Second,
		OutboxBatchSize:             100,
		OutboxMaxAttempts:           3,
		OutboxRetryDelay:            200 * time.Millisecond,
		OutboxMaxPending:            1000,
		OutboxMaxAge:                5 * time.Minute,
		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  time.Minute,
		IdempotencyCleanupBatchSize: 500,
		JWTLeeway:                   30 * time.Second,
		HTTPBodyLimit:               "1M",
		PaymentRedirectURL:          "https://pay.example.com/checkout",
		CategoryCacheTTL:            time.Minute,
		ShutdownTimeout:             10 * time.Second,
	}
}

// LoadConfig читает .env (если он есть) и переменные STOREFRONT_*.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := configFromEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// configFromEnv накладывает переменные окружения на DefaultConfig.
func configFromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	e := envReader{lookup: lookup}

	e.str("HTTP_ADDR", &cfg.HTTPAddr)
	e.str("GRPC_ADDR", &cfg.GRPCAddr)
	e.str("METRICS_ADDR", &cfg.MetricsAddr)

	var env string
	e.str("ENV", &env)
	cfg.Production = strings.EqualFold(env, "production")
	if raw, ok := e.get("LOG_LEVEL"); ok {
		level, err := log.ParseLevel(raw)
		if err != nil {
			e.fail("LOG_LEVEL", err)
		} else {
			cfg.LogLevel = level
		}
	}

	e.str("STORAGE_DRIVER", &cfg.StorageDriver)
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	e.str("POSTGRES_DSN", &cfg.PostgresDSN)
	e.boolean("POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)

	e.list("KAFKA_BROKERS", &cfg.KafkaBrokers)
	e.str("KAFKA_CLIENT_ID", &cfg.KafkaClientID)

	e.duration("OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	e.integer("OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)
	e.integer("OUTBOX_MAX_ATTEMPTS", &cfg.OutboxMaxAttempts)
	e.duration("OUTBOX_RETRY_DELAY", &cfg.OutboxRetryDelay)
	e.integer("OUTBOX_MAX_PENDING", &cfg.OutboxMaxPending)
	e.duration("OUTBOX_MAX_AGE", &cfg.OutboxMaxAge)

	e.duration("IDEMPOTENCY_TTL", &cfg.IdempotencyTTL)
	e.duration("IDEMPOTENCY_CLEANUP_INTERVAL", &cfg.IdempotencyCleanupInterval)
	e.integer("IDEMPOTENCY_CLEANUP_BATCH_SIZE", &cfg.IdempotencyCleanupBatchSize)

	e.str("JWT_SECRET", &cfg.JWTSecret)
	e.str("JWT_ISSUER", &cfg.JWTIssuer)
	e.duration("JWT_LEEWAY", &cfg.JWTLeeway)

	e.list("CORS_ORIGINS", &cfg.CORSOrigins)
	e.str("HTTP_BODY_LIMIT", &cfg.HTTPBodyLimit)

	e.str("PAYMENT_REDIRECT_URL", &cfg.PaymentRedirectURL)
	e.str("PAYMENT_BANK_ACCOUNT", &cfg.PaymentBankAccount)

	e.duration("CATEGORY_CACHE_TTL", &cfg.CategoryCacheTTL)
	e.duration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	return cfg, errors.Join(e.errs...)
}

// Validate отклоняет несовместимые настройки.
func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres storage requires STOREFRONT_POSTGRES_DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}
	if c.Production && c.JWTSecret == "" {
		errs = append(errs, errors.New("STOREFRONT_JWT_SECRET is required in production"))
	}
	for name, addr := range map[string]string{"http": c.HTTPAddr, "grpc": c.GRPCAddr, "metrics": c.MetricsAddr} {
		if strings.TrimSpace(addr) == "" {
			errs = append(errs, fmt.Errorf("%s address is empty", name))
		}
	}
	if c.OutboxBatchSize <= 0 || c.OutboxMaxAttempts <= 0 || c.IdempotencyCleanupBatchSize <= 0 {
		errs = append(errs, errors.New("batch sizes and attempts must be positive"))
	}
	if c.OutboxPollInterval <= 0 || c.IdempotencyCleanupInterval <= 0 || c.IdempotencyTTL <= 0 || c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("intervals and ttl must be positive"))
	}
	return errors.Join(errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(name string) (string, bool) {
	raw, ok := e.lookup(envPrefix + name)
	raw = strings.TrimSpace(raw)
	return raw, ok && raw != ""
}

func (e *envReader) fail(name string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
}

func (e *envReader) str(name string, dst *string) {
	if raw, ok := e.get(name); ok {
		*dst = raw
	}
}

func (e *envReader) list(name string, dst *[]string) {
	raw, ok := e.get(name)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (e *envReader) integer(name string, dst *int) {
	raw, ok := e.get(name)
	if !ok {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = v
}

func (e *envReader) boolean(name string, dst *bool) {
	raw, ok := e.get(name)
	if !ok {
		return
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = v
}

func (e *envReader) duration(name string, dst *time.Duration) {
	raw, ok := e.get(name)
	if !ok {
		return
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = v
}
