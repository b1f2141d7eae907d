package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// storage — хранилище, выбранное конфигурацией.
type storage interface {
	domain.UnitOfWork
	Ping(ctx context.Context) error
	Close() error
}

// openStorage открывает хранилище и хранилище ключей идемпотентности.
func openStorage(ctx context.Context, cfg Config, logger *log.Entry) (storage, domain.IdempotencyRepository, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), memory.NewIdempotencyRepository(), nil
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres schema is up to date")
		}
		return store, store.IdempotencyRepository(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
