package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — прикладные метрики магазина.
// Все методы безопасны для nil-получателя, чтобы сервисы работали без метрик в тестах.
type Metrics struct {
	ordersCreated       prometheus.Counter
	orderCreateFailures *prometheus.CounterVec
	orderCreateDuration prometheus.Histogram
	orderCodeRetries    prometheus.Counter
	orderTransitions    *prometheus.CounterVec
	orderCancellations  *prometheus.CounterVec
	insufficientStock   prometheus.Counter
	priceMismatches     prometheus.Counter
	orderLookups        *prometheus.CounterVec
	reviewsModerated    *prometheus.CounterVec
	timelineEvents      prometheus.Counter
	outboxEvents        prometheus.Counter

	outboxPublishAttempts *prometheus.CounterVec
	outboxPending         prometheus.Gauge
	outboxOldestAge       prometheus.Gauge
	idempotencyCleanups   *prometheus.CounterVec
	idempotencyDeleted    prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New регистрирует метрики в DefaultRegisterer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer регистрирует метрики в указанном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewWithRegisterer(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		ordersCreated: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders placed",
		})),
		orderCreateFailures: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_create_failures_total",
			Help: "Total number of rejected order placements grouped by reason",
		}, []string{"reason"})),
		orderCreateDuration: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_order_create_duration_seconds",
			Help:    "Duration of order placement including the storage transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		})),
		orderCodeRetries: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_order_code_retries_total",
			Help: "Total number of order placements retried after an order code collision",
		})),
		orderTransitions: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_transitions_total",
			Help: "Total number of order status transitions",
		}, []string{"from", "to", "override"})),
		orderCancellations: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_cancellations_total",
			Help: "Total number of cancelled orders grouped by actor",
		}, []string{"actor"})),
		insufficientStock: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_insufficient_stock_total",
			Help: "Total number of order placements rejected for insufficient stock",
		})),
		priceMismatches: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_client_price_mismatch_total",
			Help: "Total number of order items whose client price differed from the catalog price",
		})),
		orderLookups: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_lookups_total",
			Help: "Total number of public order lookups grouped by matching strategy",
		}, []string{"strategy"})),
		reviewsModerated: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_reviews_moderated_total",
			Help: "Total number of review moderation decisions",
		}, []string{"status"})),
		timelineEvents: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_timeline_events_total",
			Help: "Total number of order timeline events recorded",
		})),
		outboxEvents: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_outbox_events_total",
			Help: "Total number of events written to the transactional outbox",
		})),
		outboxPublishAttempts: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result",
		}, []string{"result"})),
		outboxPending: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_outbox_pending_records",
			Help: "Current number of pending records in transactional outbox",
		})),
		outboxOldestAge: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record",
		})),
		idempotencyCleanups: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_idempotency_cleanup_runs_total",
			Help: "Total number of idempotency cleanup runs grouped by result",
		}, []string{"result"})),
		idempotencyDeleted: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_idempotency_cleanup_deleted_total",
			Help: "Total number of deleted expired idempotency records",
		})),
		httpRequests: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"})),
		httpDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})),
	}
}

// register регистрирует коллектор; при повторной регистрации возвращает существующий.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			panic(fmt.Sprintf("collector %T already registered with unexpected type %T", collector, already.ExistingCollector))
		}
		return existing
	}
	panic(fmt.Sprintf("register collector %T: %v", collector, err))
}

// RecordOrderCreated фиксирует успешное оформление заказа.
func (m *Metrics) RecordOrderCreated(duration time.Duration) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	m.orderCreateDuration.Observe(duration.Seconds())
}

// RecordOrderCreateFailed фиксирует отклонённое оформление.
func (m *Metrics) RecordOrderCreateFailed(reason string) {
	if m == nil {
		return
	}
	m.orderCreateFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordOrderCodeRetry() {
	if m == nil {
		return
	}
	m.orderCodeRetries.Inc()
}

// RecordTransition фиксирует смену статуса заказа.
func (m *Metrics) RecordTransition(from, to string, override bool) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(from, to, strconv.FormatBool(override)).Inc()
}

// RecordCancellation фиксирует отмену; actor — customer или admin.
func (m *Metrics) RecordCancellation(actor string) {
	if m == nil {
		return
	}
	m.orderCancellations.WithLabelValues(actor).Inc()
}

func (m *Metrics) RecordInsufficientStock() {
	if m == nil {
		return
	}
	m.insufficientStock.Inc()
}

func (m *Metrics) RecordPriceMismatch() {
	if m == nil {
		return
	}
	m.priceMismatches.Inc()
}

// RecordLookup фиксирует стратегию, которой был найден заказ (или miss).
func (m *Metrics) RecordLookup(strategy string) {
	if m == nil {
		return
	}
	m.orderLookups.WithLabelValues(strategy).Inc()
}

func (m *Metrics) RecordReviewModerated(status string) {
	if m == nil {
		return
	}
	m.reviewsModerated.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordTimelineEvent() {
	if m == nil {
		return
	}
	m.timelineEvents.Inc()
}

func (m *Metrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}

// RecordOutboxPublish фиксирует попытку публикации: sent, retry_error, failed, dlq_failed.
func (m *Metrics) RecordOutboxPublish(result string) {
	if m == nil {
		return
	}
	m.outboxPublishAttempts.WithLabelValues(result).Inc()
}

// SetOutboxBacklog обновляет размер и возраст backlog outbox.
func (m *Metrics) SetOutboxBacklog(pending int, oldestAge time.Duration) {
	if m == nil {
		return
	}
	m.outboxPending.Set(float64(pending))
	m.outboxOldestAge.Set(max(oldestAge, 0).Seconds())
}

// RecordIdempotencyCleanup фиксирует прогон очистки и число удалённых ключей.
func (m *Metrics) RecordIdempotencyCleanup(result string, deleted int) {
	if m == nil {
		return
	}
	m.idempotencyCleanups.WithLabelValues(result).Inc()
	if deleted > 0 {
		m.idempotencyDeleted.Add(float64(deleted))
	}
}

// ObserveHTTP фиксирует обработанный HTTP-запрос.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
