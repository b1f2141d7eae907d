package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()

	ch := make(chan prometheus.Metric)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	var total float64
	for m := range ch {
		var out dto.Metric
		if err := m.Write(&out); err != nil {
			t.Fatalf("write metric: %v", err)
		}
		total += out.GetCounter().GetValue()
	}
	return total
}

func TestMetrics_RecordOrderLifecycle(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordOrderCreated(15 * time.Millisecond)
	m.RecordOrderCreated(20 * time.Millisecond)
	m.RecordOrderCreateFailed("insufficient_stock")
	m.RecordTransition("pending", "confirmed", false)
	m.RecordTransition("delivered", "cancelled", true)
	m.RecordCancellation("customer")
	m.RecordLookup("order_code")

	if got := counterValue(t, m.ordersCreated); got != 2 {
		t.Fatalf("expected 2 created orders, got %v", got)
	}
	if got := counterValue(t, m.orderTransitions); got != 2 {
		t.Fatalf("expected 2 transitions, got %v", got)
	}

	var out dto.Metric
	if err := m.orderTransitions.WithLabelValues("delivered", "cancelled", "true").Write(&out); err != nil {
		t.Fatalf("write transition metric: %v", err)
	}
	if out.GetCounter().GetValue() != 1 {
		t.Fatalf("expected override transition counted once, got %v", out.GetCounter().GetValue())
	}

	var hist dto.Metric
	if err := m.orderCreateDuration.Write(&hist); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if hist.GetHistogram().GetSampleCount() != 2 {
		t.Fatalf("expected 2 duration samples, got %d", hist.GetHistogram().GetSampleCount())
	}
}

func TestMetrics_ReRegistrationReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewWithRegisterer(registry)
	second := NewWithRegisterer(registry)

	first.RecordOutboxEvent()
	second.RecordOutboxEvent()

	if got := counterValue(t, first.outboxEvents); got != 2 {
		t.Fatalf("expected shared collector with 2 events, got %v", got)
	}
}

func TestMetrics_CounterVecSumsAllSeries(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	for _, status := range []int{200, 201, 400, 404, 409, 500} {
		m.ObserveHTTP("GET", "/api/products", status, time.Millisecond)
	}
	m.ObserveHTTP("GET", "/api/products", 200, time.Millisecond)

	if got := counterValue(t, m.httpRequests); got != 7 {
		t.Fatalf("expected 7 requests across series, got %v", got)
	}
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordOrderCreated(time.Second)
	m.RecordTransition("pending", "confirmed", false)
	m.ObserveHTTP("GET", "/api/orders", 200, time.Millisecond)
}

func TestMetrics_ObserveHTTP(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())
	m.ObserveHTTP("POST", "/api/orders", 201, 30*time.Millisecond)
	m.ObserveHTTP("POST", "/api/orders", 400, time.Millisecond)

	var out dto.Metric
	if err := m.httpRequests.WithLabelValues("POST", "/api/orders", "201").Write(&out); err != nil {
		t.Fatalf("write http metric: %v", err)
	}
	if out.GetCounter().GetValue() != 1 {
		t.Fatalf("expected one 201 request, got %v", out.GetCounter().GetValue())
	}
}

func TestMetrics_OutboxAndCleanup(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordOutboxPublish("sent")
	m.RecordOutboxPublish("retry_error")
	m.SetOutboxBacklog(3, -time.Second)
	m.RecordIdempotencyCleanup("ok", 4)
	m.RecordIdempotencyCleanup("ok", 0)

	if got := counterValue(t, m.outboxPublishAttempts); got != 2 {
		t.Fatalf("expected 2 publish attempts, got %v", got)
	}

	var gauge dto.Metric
	if err := m.outboxPending.Write(&gauge); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	if gauge.GetGauge().GetValue() != 3 {
		t.Fatalf("expected backlog 3, got %v", gauge.GetGauge().GetValue())
	}
	if err := m.outboxOldestAge.Write(&gauge); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	if gauge.GetGauge().GetValue() != 0 {
		t.Fatalf("negative age must clamp to zero, got %v", gauge.GetGauge().GetValue())
	}
	if got := counterValue(t, m.idempotencyDeleted); got != 4 {
		t.Fatalf("expected 4 deleted keys, got %v", got)
	}
}
