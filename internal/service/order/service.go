// Package order реализует жизненный цикл заказа: оформление со списанием остатков,
// смену статусов по таблице переходов, отмену покупателем и публичный поиск заказа.
package order

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	// maxCreateAttempts — сколько раз повторяется транзакция оформления при коллизии кода.
	maxCreateAttempts = 3
	// lookupSearchLimit ограничивает выборку при поиске по адресу.
	lookupSearchLimit = 50
)

// Service — движок жизненного цикла заказа.
type Service struct {
	uow      domain.UnitOfWork
	payments domain.PaymentGateway
	codes    *domain.OrderCodeGenerator
	metrics  *metrics.Metrics
	logger   *log.Entry
	now      func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithPaymentGateway подключает выдачу инструкций по оплате для не-COD заказов.
func WithPaymentGateway(gateway domain.PaymentGateway) Option {
	return func(s *Service) {
		s.payments = gateway
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeGenerator подменяет генератор кодов заказа.
func WithCodeGenerator(g *domain.OrderCodeGenerator) Option {
	return func(s *Service) {
		if g != nil {
			s.codes = g
		}
	}
}

// NewService создаёт движок заказов поверх UnitOfWork.
func NewService(uow domain.UnitOfWork, opts ...Option) *Service {
	s := &Service{
		uow:    uow,
		codes:  domain.NewOrderCodeGenerator(),
		logger: log.WithField("component", "order-service"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// journal копит то, что нужно учесть в метриках после коммита транзакции.
type journal struct {
	timeline    int
	outbox      int
	transitions []domain.Transition
	cancelledBy string
}

func (s *Service) flush(j *journal) {
	for range j.timeline {
		s.metrics.RecordTimelineEvent()
	}
	for range j.outbox {
		s.metrics.RecordOutboxEvent()
	}
	for _, t := range j.transitions {
		s.metrics.RecordTransition(string(t.From), string(t.To), t.Override)
	}
	if j.cancelledBy != "" {
		s.metrics.RecordCancellation(j.cancelledBy)
	}
}
