// Package cart ведёт корзину покупателя. Цена и картинка позиции
// фиксируются при добавлении; при оформлении заказа цены берутся заново из каталога.
package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Service — операции с корзиной.
type Service struct {
	uow    domain.UnitOfWork
	logger *log.Entry
	now    func() time.Time
}

// NewService создаёт сервис корзины. Nil logger заменяется логгером по умолчанию.
func NewService(uow domain.UnitOfWork, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "cart-service")
	}
	return &Service{uow: uow, logger: logger, now: time.Now}
}

// ItemInput — вариант товара в корзине.
type ItemInput struct {
	ProductID     string
	Quantity      int
	SelectedSize  string
	SelectedColor string
}

func (in ItemInput) normalize() (ItemInput, error) {
	id, err := domain.NormalizeID(in.ProductID)
	if err != nil {
		return in, fmt.Errorf("productId: %w", err)
	}
	in.ProductID = id
	in.SelectedSize = strings.TrimSpace(in.SelectedSize)
	in.SelectedColor = strings.TrimSpace(in.SelectedColor)
	return in, nil
}

// Get возвращает корзину; у нового пользователя она пустая.
func (s *Service) Get(ctx context.Context, userID string) (domain.Cart, error) {
	if userID == "" {
		return domain.Cart{}, domain.ErrUnauthorized
	}
	return s.uow.Repos().Carts.Get(ctx, userID)
}

// Add кладёт товар в корзину. Тот же вариант (размер и цвет) складывается по количеству,
// итог не может превышать остаток.
func (s *Service) Add(ctx context.Context, userID string, in ItemInput) (domain.Cart, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.Cart{}, err
	}
	if in.Quantity < 1 {
		return domain.Cart{}, domain.ErrItemQuantityInvalid
	}

	return s.mutate(ctx, userID, func(ctx context.Context, repos domain.Repositories, cart *domain.Cart) error {
		product, err := activeProduct(ctx, repos, in.ProductID)
		if err != nil {
			return err
		}
		want := in.Quantity
		if existing, ok := cart.Find(in.ProductID, in.SelectedSize, in.SelectedColor); ok {
			want += existing.Quantity
		}
		if want > product.Stock {
			return fmt.Errorf("%w: %q has only %d left", domain.ErrInsufficientStock, product.Name, product.Stock)
		}
		cart.Add(domain.CartItem{
			ProductID:     product.ID,
			Quantity:      in.Quantity,
			Price:         product.Price,
			SelectedSize:  in.SelectedSize,
			SelectedColor: in.SelectedColor,
			ImageURL:      product.MainImage(),
		})
		return nil
	})
}

// SetQuantity меняет количество варианта; ноль удаляет позицию.
func (s *Service) SetQuantity(ctx context.Context, userID string, in ItemInput) (domain.Cart, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.Cart{}, err
	}
	if in.Quantity < 0 {
		return domain.Cart{}, domain.ErrItemQuantityInvalid
	}

	return s.mutate(ctx, userID, func(ctx context.Context, repos domain.Repositories, cart *domain.Cart) error {
		if in.Quantity > 0 {
			product, err := repos.Products.Get(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if in.Quantity > product.Stock {
				return fmt.Errorf("%w: %q has only %d left", domain.ErrInsufficientStock, product.Name, product.Stock)
			}
		}
		return cart.SetQuantity(in.ProductID, in.SelectedSize, in.SelectedColor, in.Quantity)
	})
}

// Remove убирает все варианты товара.
func (s *Service) Remove(ctx context.Context, userID, productID string) (domain.Cart, error) {
	id, err := domain.NormalizeID(productID)
	if err != nil {
		return domain.Cart{}, err
	}
	return s.mutate(ctx, userID, func(_ context.Context, _ domain.Repositories, cart *domain.Cart) error {
		return cart.Remove(id)
	})
}

// Clear очищает корзину.
func (s *Service) Clear(ctx context.Context, userID string) (domain.Cart, error) {
	return s.mutate(ctx, userID, func(_ context.Context, _ domain.Repositories, cart *domain.Cart) error {
		cart.Clear()
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, userID string, fn func(context.Context, domain.Repositories, *domain.Cart) error) (domain.Cart, error) {
	if userID == "" {
		return domain.Cart{}, domain.ErrUnauthorized
	}

	var out domain.Cart
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cart, err := repos.Carts.Get(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, &cart); err != nil {
			return err
		}
		now := s.now().UTC()
		if cart.CreatedAt.IsZero() {
			cart.CreatedAt = now
		}
		cart.UpdatedAt = now
		if err := repos.Carts.Save(ctx, cart); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		out, err = repos.Carts.Get(ctx, userID)
		return err
	})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Debug("cart update rejected")
		return domain.Cart{}, err
	}
	return out, nil
}

func activeProduct(ctx context.Context, repos domain.Repositories, id string) (domain.Product, error) {
	product, err := repos.Products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !product.IsActive {
		return domain.Product{}, fmt.Errorf("%w: product %q is not available", domain.ErrInvalidOrderItem, product.Name)
	}
	return product, nil
}
