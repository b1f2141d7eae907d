// Package wishlist ведёт избранное покупателя.
package wishlist

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Entry — товар из избранного вместе с датой добавления.
type Entry struct {
	Product domain.Product
	AddedAt time.Time
}

// Service — операции с избранным.
type Service struct {
	uow    domain.UnitOfWork
	logger *log.Entry
	now    func() time.Time
}

// NewService создаёт сервис избранного. Nil logger заменяется логгером по умолчанию.
func NewService(uow domain.UnitOfWork, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "wishlist-service")
	}
	return &Service{uow: uow, logger: logger, now: time.Now}
}

// Get возвращает избранное. Скрытые и удалённые товары пропускаются при чтении,
// сама запись не меняется: товар может вернуться в продажу.
func (s *Service) Get(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	repos := s.uow.Repos()
	wishlist, err := repos.Wishlists.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(wishlist.Items))
	for _, item := range wishlist.Items {
		product, err := repos.Products.Get(ctx, item.ProductID)
		if domain.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			continue
		}
		entries = append(entries, Entry{Product: product, AddedAt: item.AddedAt})
	}
	return entries, nil
}

// Add добавляет активный товар. Повторное добавление ничего не меняет.
func (s *Service) Add(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	id, err := domain.NormalizeID(productID)
	if err != nil {
		return err
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		product, err := repos.Products.Get(ctx, id)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return domain.ErrProductNotFound
		}
		wishlist, err := repos.Wishlists.Get(ctx, userID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if !wishlist.Add(id, now) {
			return nil
		}
		if wishlist.CreatedAt.IsZero() {
			wishlist.CreatedAt = now
		}
		wishlist.UpdatedAt = now
		return repos.Wishlists.Save(ctx, wishlist)
	})
}

// Remove убирает товар; отсутствие товара в избранном не ошибка.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	id, err := domain.NormalizeID(productID)
	if err != nil {
		return err
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		wishlist, err := repos.Wishlists.Get(ctx, userID)
		if err != nil {
			return err
		}
		if !wishlist.Remove(id) {
			return nil
		}
		wishlist.UpdatedAt = s.now().UTC()
		return repos.Wishlists.Save(ctx, wishlist)
	})
}
