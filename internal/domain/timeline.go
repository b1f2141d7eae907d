package domain

import "time"

// Типы событий в истории заказа.
const (
	TimelineOrderCreated      = "order_created"
	TimelineStatusChanged     = "status_changed"
	TimelineOrderCancelled    = "order_cancelled"
	TimelinePaymentUpdated    = "payment_updated"
	TimelineAdminNoteUpdated  = "admin_note_updated"
	TimelineStatusOverridden  = "status_overridden"
	TimelineCustomerCancelled = "customer_cancelled"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
