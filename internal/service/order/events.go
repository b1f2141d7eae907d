package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderEvent — payload событий заказа в outbox.
type orderEvent struct {
	OrderID       string    `json:"orderId"`
	OrderCode     string    `json:"orderCode"`
	UserID        string    `json:"userId"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	Total         int64     `json:"total"`
	From          string    `json:"from,omitempty"`
	Override      bool      `json:"override,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func newOrderEvent(order domain.Order, at time.Time) orderEvent {
	return orderEvent{
		OrderID:       order.ID,
		OrderCode:     order.OrderCode,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Total:         order.Total,
		OccurredAt:    at,
	}
}

func (s *Service) enqueue(ctx context.Context, repos domain.Repositories, j *journal, eventType string, ev orderEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	if _, err := repos.Outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   ev.OrderID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		return fmt.Errorf("enqueue %s event: %w", eventType, err)
	}
	j.outbox++
	return nil
}

func (s *Service) record(ctx context.Context, repos domain.Repositories, j *journal, orderID, eventType, reason string, at time.Time) error {
	if err := repos.Timeline.Append(ctx, domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: at,
	}); err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	j.timeline++
	return nil
}
