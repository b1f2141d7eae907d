package domain

// Типы событий transactional outbox.
const (
	EventOrderCreated        = "order.created"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderCanceled       = "order.canceled"
	EventOrderDeleted        = "order.deleted"
	EventOrderPaymentUpdated = "order.payment_updated"
	EventReviewModerated     = "review.moderated"
)

// Типы агрегатов в outbox.
const (
	AggregateOrder  = "order"
	AggregateReview = "review"
)
