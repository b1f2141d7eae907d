package order

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Get возвращает заказ владельцу или администратору.
func (s *Service) Get(ctx context.Context, actor domain.Principal, orderID string) (domain.Order, error) {
	id, err := domain.NormalizeID(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order, err := s.uow.Repos().Orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !actor.CanAccessOrder(order) {
		return domain.Order{}, domain.ErrForbidden
	}
	return order, nil
}

// List возвращает заказы пользователя, новые первыми.
func (s *Service) List(ctx context.Context, actor domain.Principal, status domain.OrderStatus, page domain.PageRequest) ([]domain.Order, domain.PageInfo, error) {
	if actor.UserID == "" {
		return nil, domain.PageInfo{}, domain.ErrUnauthorized
	}
	return s.list(ctx, domain.OrderFilter{UserID: actor.UserID, Status: status, Page: page})
}

// ListAll возвращает заказы всех пользователей для админки.
func (s *Service) ListAll(ctx context.Context, status domain.OrderStatus, page domain.PageRequest) ([]domain.Order, domain.PageInfo, error) {
	return s.list(ctx, domain.OrderFilter{Status: status, Page: page})
}

func (s *Service) list(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, domain.PageInfo, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.PageInfo{}, fmt.Errorf("%w: %q", domain.ErrOrderStatusInvalid, filter.Status)
	}
	filter.Page = domain.NewPageRequest(filter.Page.Page, filter.Page.Limit)
	orders, total, err := s.uow.Repos().Orders.List(ctx, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return orders, filter.Page.Info(total), nil
}

// Delete удаляет отменённый заказ. Остатки уже возвращены при отмене.
func (s *Service) Delete(ctx context.Context, orderID string) error {
	id, err := domain.NormalizeID(orderID)
	if err != nil {
		return err
	}

	var j journal
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		order, err := repos.Orders.Get(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusCancelled {
			return fmt.Errorf("%w: order is %s", domain.ErrOrderNotDeletable, order.Status)
		}
		if err := repos.Orders.Delete(ctx, id); err != nil {
			return err
		}
		return s.enqueue(ctx, repos, &j, domain.EventOrderDeleted, newOrderEvent(order, s.now().UTC()))
	})
	if err != nil {
		return err
	}

	s.flush(&j)
	s.logger.WithField("order_id", id).Info("order deleted")
	return nil
}

// Timeline возвращает историю заказа владельцу или администратору.
func (s *Service) Timeline(ctx context.Context, actor domain.Principal, orderID string) ([]domain.TimelineEvent, error) {
	order, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	events, err := s.uow.Repos().Timeline.List(ctx, order.ID)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{"order_id": order.ID}).Error("failed to load order timeline")
		return nil, err
	}
	return events, nil
}

// StockMovements возвращает складские движения по заказу.
func (s *Service) StockMovements(ctx context.Context, orderID string) ([]domain.StockMovement, error) {
	id, err := domain.NormalizeID(orderID)
	if err != nil {
		return nil, err
	}
	return s.uow.Repos().StockMovements.ListByOrder(ctx, id)
}
