package domain

import (
	"errors"
	"time"
)

// StockMovementReason объясняет изменение складских счётчиков.
type StockMovementReason string

const (
	// StockReasonOrderPlaced — списание при оформлении заказа.
	StockReasonOrderPlaced StockMovementReason = "order_placed"
	// StockReasonOrderCancelled — возврат на склад при отмене.
	StockReasonOrderCancelled StockMovementReason = "order_cancelled"
	// StockReasonOrderReactivated — повторное списание при выводе заказа из cancelled.
	StockReasonOrderReactivated StockMovementReason = "order_reactivated"
	// StockReasonOrderDelivered — рост счётчика sold при доставке.
	StockReasonOrderDelivered StockMovementReason = "order_delivered_sold"
	// StockReasonAdminAdjust — ручная правка остатка администратором.
	StockReasonAdminAdjust StockMovementReason = "admin_adjust"
)

// StockMovement — запись журнала складских движений.
// Delta для stock отрицательная при списании; для sold всегда положительная.
type StockMovement struct {
	ID        string
	ProductID string
	OrderID   string
	Delta     int
	Reason    StockMovementReason
	CreatedAt time.Time
}

// Validate проверяет запись журнала.
func (m StockMovement) Validate() error {
	if m.ProductID == "" {
		return errors.New("stock movement product_id is required")
	}
	if m.Delta == 0 {
		return errors.New("stock movement delta must be non-zero")
	}
	if m.Reason == "" {
		return errors.New("stock movement reason is required")
	}
	return nil
}
