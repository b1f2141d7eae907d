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

// ItemInput — позиция заказа в том виде, как её прислал клиент.
// Price, Name и Image клиента не используются: снимок берётся из каталога.
type ItemInput struct {
	ProductID     string
	Quantity      int
	Price         int64
	Name          string
	Image         string
	SelectedSize  string
	SelectedColor string
}

// CreateInput — данные оформления заказа.
type CreateInput struct {
	UserID          string
	Items           []ItemInput
	ShippingAddress domain.ShippingAddress
	PaymentMethod   domain.PaymentMethod
	CustomerNote    string
	Discount        int64
	ShippingFee     int64
}

// CreateResult — созданный заказ и, для онлайн-оплаты, инструкция по оплате.
type CreateResult struct {
	Order   domain.Order
	Payment *domain.PaymentInstruction
}

// Validate проверяет запрос до открытия транзакции и называет первую ошибку.
func (in *CreateInput) Validate() error {
	if strings.TrimSpace(in.UserID) == "" {
		return domain.ErrUnauthorized
	}
	if len(in.Items) == 0 {
		return domain.ErrItemsRequired
	}
	for i, item := range in.Items {
		if !domain.IsValidID(strings.ToLower(strings.TrimSpace(item.ProductID))) {
			return fmt.Errorf("items[%d].productId: %w", i, domain.ErrInvalidID)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("items[%d].quantity: %w", i, domain.ErrItemQuantityInvalid)
		}
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return err
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentMethodCOD
	}
	if !in.PaymentMethod.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrPaymentMethodInvalid, in.PaymentMethod)
	}
	if in.Discount < 0 {
		return fmt.Errorf("%w: discount", domain.ErrAmountNegative)
	}
	if in.ShippingFee < 0 {
		return fmt.Errorf("%w: shippingFee", domain.ErrAmountNegative)
	}
	return nil
}

// Create оформляет заказ одной транзакцией: списание остатков, снимок позиций,
// запись заказа, журнал склада, история, событие outbox и очистка корзины.
// Любая ошибка откатывает всё, включая уже сделанные списания.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	started := s.now()
	if err := in.Validate(); err != nil {
		s.metrics.RecordOrderCreateFailed("validation")
		return CreateResult{}, err
	}

	var (
		order domain.Order
		j     journal
		err   error
	)
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		j = journal{}
		order, err = s.createOnce(ctx, in, &j)
		if !errors.Is(err, domain.ErrDuplicateOrderCode) || attempt == maxCreateAttempts {
			break
		}
		s.metrics.RecordOrderCodeRetry()
		s.logger.WithError(err).WithField("attempt", attempt).Warn("order code collision, retrying order placement")
	}
	if err != nil {
		s.metrics.RecordOrderCreateFailed(failureReason(err))
		return CreateResult{}, err
	}

	s.flush(&j)
	s.metrics.RecordOrderCreated(s.now().Sub(started))
	s.logger.WithFields(log.Fields{
		"order_id":   order.ID,
		"order_code": order.OrderCode,
		"user_id":    order.UserID,
		"total":      order.Total,
	}).Info("order placed")

	result := CreateResult{Order: order}
	if s.payments != nil && order.PaymentMethod != domain.PaymentMethodCOD {
		instruction, err := s.payments.Initiate(ctx, order)
		if err != nil {
			s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to initiate payment")
		} else {
			result.Payment = &instruction
		}
	}
	return result, nil
}

func (s *Service) createOnce(ctx context.Context, in CreateInput, j *journal) (domain.Order, error) {
	var created domain.Order
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		now := s.now().UTC()
		orderID := domain.NewID()

		items := make([]domain.OrderItem, 0, len(in.Items))
		movements := make([]domain.StockMovement, 0, len(in.Items))
		for i, input := range in.Items {
			productID := strings.ToLower(strings.TrimSpace(input.ProductID))
			product, err := repos.Products.DecrementStock(ctx, productID, input.Quantity)
			if err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					s.metrics.RecordInsufficientStock()
					return fmt.Errorf("items[%d]: %w", i, err)
				}
				if errors.Is(err, domain.ErrProductNotFound) {
					return fmt.Errorf("%w: items[%d]: product %s not found", domain.ErrInvalidOrderItem, i, productID)
				}
				return fmt.Errorf("reserve stock for %s: %w", productID, err)
			}
			if !product.IsActive {
				return fmt.Errorf("%w: items[%d]: product %q is not available", domain.ErrInvalidOrderItem, i, product.Name)
			}
			if input.Price != 0 && input.Price != product.Price {
				s.metrics.RecordPriceMismatch()
				s.logger.WithFields(log.Fields{
					"product_id":   productID,
					"client_price": input.Price,
					"price":        product.Price,
				}).Warn("client price differs from catalog price")
			}

			image := product.MainImage()
			if image == "" {
				image = input.Image
			}
			items = append(items, domain.OrderItem{
				ProductID:     productID,
				Name:          product.Name,
				Price:         product.Price,
				Image:         image,
				Quantity:      input.Quantity,
				SelectedSize:  input.SelectedSize,
				SelectedColor: input.SelectedColor,
			})
			movements = append(movements, domain.StockMovement{
				ProductID: productID,
				OrderID:   orderID,
				Delta:     -input.Quantity,
				Reason:    domain.StockReasonOrderPlaced,
			})
		}

		subtotal, total := domain.ComputeTotals(items, in.ShippingFee, in.Discount)
		if total < 0 {
			return fmt.Errorf("%w: subtotal %d + shipping %d - discount %d", domain.ErrTotalNegative, subtotal, in.ShippingFee, in.Discount)
		}

		code, err := s.codes.Unique(func(code string) (bool, error) {
			return repos.Orders.CodeExists(ctx, code)
		})
		if err != nil {
			return err
		}

		order := domain.Order{
			ID:              orderID,
			UserID:          in.UserID,
			OrderCode:       code,
			Items:           items,
			Subtotal:        subtotal,
			ShippingFee:     in.ShippingFee,
			Discount:        in.Discount,
			Total:           total,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   domain.PaymentStatusUnpaid,
			Status:          domain.OrderStatusPending,
			ShippingAddress: trimAddress(in.ShippingAddress),
			CustomerNote:    strings.TrimSpace(in.CustomerNote),
			PendingAt:       now,
			Version:         1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if errs := order.ValidateInvariants(); len(errs) > 0 {
			return errors.Join(errs...)
		}

		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := repos.StockMovements.Append(ctx, movements...); err != nil {
			return fmt.Errorf("append stock movements: %w", err)
		}
		if err := s.record(ctx, repos, j, order.ID, domain.TimelineOrderCreated, "order "+code+" placed", now); err != nil {
			return err
		}
		if err := s.enqueue(ctx, repos, j, domain.EventOrderCreated, newOrderEvent(order, now)); err != nil {
			return err
		}
		if err := clearCart(ctx, repos, in.UserID, now); err != nil {
			return err
		}

		created = order
		return nil
	})
	return created, err
}

func clearCart(ctx context.Context, repos domain.Repositories, userID string, now time.Time) error {
	cart, err := repos.Carts.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if cart.ID == "" || len(cart.Items) == 0 {
		return nil
	}
	cart.Clear()
	cart.UpdatedAt = now
	if err := repos.Carts.Save(ctx, cart); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func trimAddress(a domain.ShippingAddress) domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName: strings.TrimSpace(a.FullName),
		Phone:    strings.TrimSpace(a.Phone),
		Street:   strings.TrimSpace(a.Street),
		Ward:     strings.TrimSpace(a.Ward),
		District: strings.TrimSpace(a.District),
		Province: strings.TrimSpace(a.Province),
		Note:     strings.TrimSpace(a.Note),
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrDuplicateOrderCode):
		return "order_code_collision"
	case domain.IsValidation(err):
		return "validation"
	default:
		return "internal"
	}
}
