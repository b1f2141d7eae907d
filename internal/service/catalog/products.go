package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// stockHistoryLimit — сколько последних движений склада отдаётся по товару.
const stockHistoryLimit = 100

// ProductInput — поля товара, которые задаёт администратор.
// При обновлении nil означает «не менять».
type ProductInput struct {
	Name          *string
	Slug          *string
	Description   *string
	Price         *int64
	OriginalPrice *int64
	Stock         *int
	Images        []string
	Sizes         []string
	Colors        []string
	CategoryID    *string
	BrandID       *string
	IsActive      *bool
	IsXakho       *bool
	IsFeatured    *bool
	IsNewArrival  *bool
}

func (in ProductInput) apply(p *domain.Product) {
	set(&p.Name, in.Name, strings.TrimSpace)
	set(&p.Slug, in.Slug, Slugify)
	set(&p.Description, in.Description, strings.TrimSpace)
	set(&p.CategoryID, in.CategoryID, normalizeRef)
	set(&p.BrandID, in.BrandID, normalizeRef)
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Images != nil {
		p.Images = append([]string(nil), in.Images...)
	}
	if in.Sizes != nil {
		p.Sizes = append([]string(nil), in.Sizes...)
	}
	if in.Colors != nil {
		p.Colors = append([]string(nil), in.Colors...)
	}
	for _, flag := range []struct {
		dst *bool
		src *bool
	}{
		{&p.IsActive, in.IsActive},
		{&p.IsXakho, in.IsXakho},
		{&p.IsFeatured, in.IsFeatured},
		{&p.IsNewArrival, in.IsNewArrival},
	} {
		if flag.src != nil {
			*flag.dst = *flag.src
		}
	}
}

func set(dst *string, src *string, clean func(string) string) {
	if src != nil {
		*dst = clean(*src)
	}
}

func normalizeRef(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// CreateProduct добавляет товар. Slug строится из названия, если не задан.
// Товар активен, если IsActive не передан явно.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	now := s.now().UTC()
	product := domain.Product{
		ID:        domain.NewID(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(&product)
	if product.Slug == "" {
		product.Slug = Slugify(product.Name)
	}
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := checkRefs(ctx, repos, product); err != nil {
			return err
		}
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}
		if product.Stock == 0 {
			return nil
		}
		return repos.StockMovements.Append(ctx, domain.StockMovement{
			ProductID: product.ID,
			Delta:     product.Stock,
			Reason:    domain.StockReasonAdminAdjust,
			CreatedAt: now,
		})
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{"product_id": product.ID, "slug": product.Slug}).Info("product created")
	return product, nil
}

// UpdateProduct применяет частичные изменения. Правка остатка попадает в журнал склада.
func (s *Service) UpdateProduct(ctx context.Context, productID string, in ProductInput) (domain.Product, error) {
	id, err := domain.NormalizeID(productID)
	if err != nil {
		return domain.Product{}, err
	}

	var updated domain.Product
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		product, err := repos.Products.Get(ctx, id)
		if err != nil {
			return err
		}
		before := product.Stock
		in.apply(&product)
		if product.Slug == "" {
			product.Slug = Slugify(product.Name)
		}
		if err := product.Validate(); err != nil {
			return err
		}
		if err := checkRefs(ctx, repos, product); err != nil {
			return err
		}
		product.UpdatedAt = s.now().UTC()
		if err := repos.Products.Update(ctx, product); err != nil {
			return err
		}
		if delta := product.Stock - before; delta != 0 {
			if err := repos.StockMovements.Append(ctx, domain.StockMovement{
				ProductID: id,
				Delta:     delta,
				Reason:    domain.StockReasonAdminAdjust,
				CreatedAt: product.UpdatedAt,
			}); err != nil {
				return fmt.Errorf("append stock movement: %w", err)
			}
		}
		updated = product
		return nil
	})
	return updated, err
}

// DeleteProduct скрывает товар из витрины. Заказы и отзывы продолжают на него ссылаться.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	inactive := false
	_, err := s.UpdateProduct(ctx, productID, ProductInput{IsActive: &inactive})
	if err != nil {
		return err
	}
	s.logger.WithField("product_id", productID).Info("product deactivated")
	return nil
}

// GetProduct ищет товар по id или slug. Неактивный товар виден только администратору.
func (s *Service) GetProduct(ctx context.Context, idOrSlug string, includeInactive bool) (domain.Product, error) {
	key := strings.ToLower(strings.TrimSpace(idOrSlug))
	products := s.uow.Repos().Products

	var (
		product domain.Product
		err     error
	)
	if domain.IsValidID(key) {
		product, err = products.Get(ctx, key)
	}
	if !domain.IsValidID(key) || errors.Is(err, domain.ErrProductNotFound) {
		product, err = products.GetBySlug(ctx, key)
	}
	if err != nil {
		return domain.Product{}, err
	}
	if !product.IsActive && !includeInactive {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// ListProducts возвращает страницу каталога.
func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, domain.PageInfo, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.CategoryID = normalizeRef(filter.CategoryID)
	filter.BrandID = normalizeRef(filter.BrandID)
	filter.Sort = domain.ParseProductSort(string(filter.Sort))
	filter.Page = domain.NewPageRequest(filter.Page.Page, filter.Page.Limit)
	if filter.MinPrice < 0 || filter.MaxPrice < 0 {
		return nil, domain.PageInfo{}, fmt.Errorf("%w: price filter", domain.ErrAmountNegative)
	}

	products, total, err := s.uow.Repos().Products.List(ctx, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return products, filter.Page.Info(total), nil
}

// StockHistory возвращает последние движения остатка товара, новые первыми.
func (s *Service) StockHistory(ctx context.Context, productID string) ([]domain.StockMovement, error) {
	id, err := domain.NormalizeID(productID)
	if err != nil {
		return nil, err
	}
	if _, err := s.uow.Repos().Products.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.uow.Repos().StockMovements.ListByProduct(ctx, id, stockHistoryLimit)
}

func checkRefs(ctx context.Context, repos domain.Repositories, p domain.Product) error {
	if p.CategoryID != "" {
		if !domain.IsValidID(p.CategoryID) {
			return fmt.Errorf("categoryId: %w", domain.ErrInvalidID)
		}
		if _, err := repos.Categories.Get(ctx, p.CategoryID); err != nil {
			return refError("categoryId", err)
		}
	}
	if p.BrandID != "" {
		if !domain.IsValidID(p.BrandID) {
			return fmt.Errorf("brandId: %w", domain.ErrInvalidID)
		}
		if _, err := repos.Brands.Get(ctx, p.BrandID); err != nil {
			return refError("brandId", err)
		}
	}
	return nil
}

// refError превращает отсутствующую категорию или бренд в ошибку ввода.
func refError(field string, err error) error {
	if domain.IsNotFound(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidID, field, err)
	}
	return fmt.Errorf("load %s: %w", field, err)
}
