// Package catalog управляет товарами, категориями и брендами.
package catalog

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Service — каталог магазина.
type Service struct {
	uow        domain.UnitOfWork
	categories *categoryCache
	logger     *log.Entry
	now        func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock подменяет источник времени, в том числе для кеша категорий.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCategoryTTL задаёт время жизни кеша категорий; ноль отключает кеш.
func WithCategoryTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.categories.ttl = ttl
	}
}

// NewService создаёт сервис каталога.
func NewService(uow domain.UnitOfWork, opts ...Option) *Service {
	s := &Service{
		uow:        uow,
		categories: &categoryCache{ttl: DefaultCategoryTTL},
		logger:     log.WithField("component", "catalog-service"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
