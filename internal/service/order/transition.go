package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// UpdateInput — изменения заказа из админки. Пустые поля не трогаются.
type UpdateInput struct {
	OrderID       string
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
	AdminNote     *string
	// Override разрешает переходы вне таблицы (из delivered, из cancelled, назад).
	Override bool
}

// UpdateStatus применяет изменения администратора в одной транзакции.
func (s *Service) UpdateStatus(ctx context.Context, in UpdateInput) (domain.Order, error) {
	id, err := domain.NormalizeID(in.OrderID)
	if err != nil {
		return domain.Order{}, err
	}
	if in.Status != "" && !in.Status.Valid() {
		return domain.Order{}, fmt.Errorf("%w: %q", domain.ErrOrderStatusInvalid, in.Status)
	}
	if in.PaymentStatus != "" && !in.PaymentStatus.Valid() {
		return domain.Order{}, fmt.Errorf("%w: %q", domain.ErrPaymentStatusInvalid, in.PaymentStatus)
	}

	var (
		updated domain.Order
		j       journal
	)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		order, err := repos.Orders.Get(ctx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		changed := false

		if in.Status != "" && in.Status != order.Status {
			plan, err := domain.PlanTransition(order.Status, in.Status, in.Override)
			if err != nil {
				return err
			}
			if plan.To == domain.OrderStatusCancelled {
				j.cancelledBy = "admin"
			}
			if err := s.applyTransition(ctx, repos, &j, &order, plan, "", now); err != nil {
				return err
			}
			changed = true
		}

		if in.PaymentStatus != "" && in.PaymentStatus != order.PaymentStatus {
			from := order.PaymentStatus
			order.PaymentStatus = in.PaymentStatus
			if in.PaymentStatus == domain.PaymentStatusPaid {
				order.PaidAt = &now
			}
			reason := fmt.Sprintf("%s -> %s", from, in.PaymentStatus)
			if err := s.record(ctx, repos, &j, order.ID, domain.TimelinePaymentUpdated, reason, now); err != nil {
				return err
			}
			ev := newOrderEvent(order, now)
			ev.From = string(from)
			if err := s.enqueue(ctx, repos, &j, domain.EventOrderPaymentUpdated, ev); err != nil {
				return err
			}
			changed = true
		}

		if in.AdminNote != nil && *in.AdminNote != order.AdminNote {
			order.AdminNote = *in.AdminNote
			if err := s.record(ctx, repos, &j, order.ID, domain.TimelineAdminNoteUpdated, "", now); err != nil {
				return err
			}
			changed = true
		}

		if changed {
			order.UpdatedAt = now
			if err := repos.Orders.Save(ctx, order); err != nil {
				return err
			}
			order.Version++
		}
		updated = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.flush(&j)
	return updated, nil
}

// Cancel отменяет заказ по запросу владельца или администратора.
// Разрешено только из pending и confirmed; повторная отмена даёт ErrOrderNotCancellable.
func (s *Service) Cancel(ctx context.Context, actor domain.Principal, orderID, reason string) (domain.Order, error) {
	id, err := domain.NormalizeID(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	var (
		cancelled domain.Order
		j         journal
	)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		order, err := repos.Orders.Get(ctx, id)
		if err != nil {
			return err
		}
		if !actor.CanAccessOrder(order) {
			return domain.ErrForbidden
		}
		if !domain.CanCustomerCancel(order.Status) {
			return fmt.Errorf("%w: order is %s", domain.ErrOrderNotCancellable, order.Status)
		}

		plan, err := domain.PlanTransition(order.Status, domain.OrderStatusCancelled, false)
		if err != nil {
			return err
		}
		j.cancelledBy = "customer"
		if actor.IsAdmin() && !order.OwnedBy(actor.UserID) {
			j.cancelledBy = "admin"
		}
		now := s.now().UTC()
		if err := s.applyTransition(ctx, repos, &j, &order, plan, strings.TrimSpace(reason), now); err != nil {
			return err
		}
		order.UpdatedAt = now
		if err := repos.Orders.Save(ctx, order); err != nil {
			return err
		}
		order.Version++
		cancelled = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.flush(&j)
	s.logger.WithFields(log.Fields{
		"order_id": cancelled.ID,
		"actor":    actor.UserID,
	}).Info("order cancelled")
	return cancelled, nil
}

// applyTransition — единственное место, где применяются эффекты смены статуса.
// Его используют и админское обновление, и отмена покупателем.
func (s *Service) applyTransition(ctx context.Context, repos domain.Repositories, j *journal, order *domain.Order, t domain.Transition, reason string, now time.Time) error {
	if t.Noop() {
		return nil
	}

	var movements []domain.StockMovement
	for _, effect := range t.Effects {
		switch effect {
		case domain.EffectReserveStock:
			for i, item := range order.Items {
				if _, err := repos.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					if errors.Is(err, domain.ErrProductNotFound) {
						return fmt.Errorf("%w: items[%d]: product %s no longer exists", domain.ErrInvalidOrderItem, i, item.ProductID)
					}
					return fmt.Errorf("items[%d]: %w", i, err)
				}
				movements = append(movements, domain.StockMovement{
					ProductID: item.ProductID,
					OrderID:   order.ID,
					Delta:     -item.Quantity,
					Reason:    domain.StockReasonOrderReactivated,
				})
			}
		case domain.EffectRestock:
			for _, item := range order.Items {
				if err := repos.Products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					if errors.Is(err, domain.ErrProductNotFound) {
						s.logger.WithField("product_id", item.ProductID).Warn("skip restock of deleted product")
						continue
					}
					return fmt.Errorf("restock %s: %w", item.ProductID, err)
				}
				movements = append(movements, domain.StockMovement{
					ProductID: item.ProductID,
					OrderID:   order.ID,
					Delta:     item.Quantity,
					Reason:    domain.StockReasonOrderCancelled,
				})
			}
		case domain.EffectIncrementSold:
			if order.DeliveredAt != nil {
				continue
			}
			for _, item := range order.Items {
				if err := repos.Products.IncrementSold(ctx, item.ProductID, item.Quantity); err != nil {
					if errors.Is(err, domain.ErrProductNotFound) {
						continue
					}
					return fmt.Errorf("increment sold %s: %w", item.ProductID, err)
				}
				movements = append(movements, domain.StockMovement{
					ProductID: item.ProductID,
					OrderID:   order.ID,
					Delta:     item.Quantity,
					Reason:    domain.StockReasonOrderDelivered,
				})
			}
		case domain.EffectMarkPaid:
			if order.PaymentStatus != domain.PaymentStatusPaid || order.PaidAt == nil {
				order.PaymentStatus = domain.PaymentStatusPaid
				order.PaidAt = &now
			}
		}
	}

	switch t.To {
	case domain.OrderStatusConfirmed:
		order.ConfirmedAt = stampOnce(order.ConfirmedAt, now)
	case domain.OrderStatusShipping:
		order.ShippingAt = stampOnce(order.ShippingAt, now)
	case domain.OrderStatusDelivered:
		order.DeliveredAt = stampOnce(order.DeliveredAt, now)
	case domain.OrderStatusCancelled:
		order.CancelledAt = stampOnce(order.CancelledAt, now)
		if reason != "" {
			order.CancelReason = reason
		}
	}
	order.Status = t.To

	if len(movements) > 0 {
		if err := repos.StockMovements.Append(ctx, movements...); err != nil {
			return fmt.Errorf("append stock movements: %w", err)
		}
	}

	timelineType := domain.TimelineStatusChanged
	switch {
	case t.Override:
		timelineType = domain.TimelineStatusOverridden
	case t.To == domain.OrderStatusCancelled && j.cancelledBy == "customer":
		timelineType = domain.TimelineCustomerCancelled
	case t.To == domain.OrderStatusCancelled:
		timelineType = domain.TimelineOrderCancelled
	}
	note := fmt.Sprintf("%s -> %s", t.From, t.To)
	if reason != "" {
		note += ": " + reason
	}
	if err := s.record(ctx, repos, j, order.ID, timelineType, note, now); err != nil {
		return err
	}

	eventType := domain.EventOrderStatusChanged
	if t.To == domain.OrderStatusCancelled {
		eventType = domain.EventOrderCanceled
	}
	ev := newOrderEvent(*order, now)
	ev.From = string(t.From)
	ev.Override = t.Override
	ev.Reason = reason
	if err := s.enqueue(ctx, repos, j, eventType, ev); err != nil {
		return err
	}

	j.transitions = append(j.transitions, t)
	return nil
}

func stampOnce(current *time.Time, now time.Time) *time.Time {
	if current != nil {
		return current
	}
	return &now
}
