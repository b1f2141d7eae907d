package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productRepository struct {
	s *session
}

func (r *productRepository) Create(_ context.Context, product domain.Product) error {
	return r.s.write(func(st *state) error {
		if _, exists := st.products[product.ID]; exists {
			return fmt.Errorf("product %s already exists", product.ID)
		}
		if slugTaken(st, product.Slug, product.ID) {
			return domain.ErrSlugTaken
		}
		st.products[product.ID] = product.Clone()
		return nil
	})
}

func (r *productRepository) Get(_ context.Context, id string) (domain.Product, error) {
	var out domain.Product
	err := r.s.read(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

func (r *productRepository) GetBySlug(_ context.Context, slug string) (domain.Product, error) {
	var out domain.Product
	err := r.s.read(func(st *state) error {
		for _, p := range st.products {
			if p.Slug == slug {
				out = p.Clone()
				return nil
			}
		}
		return domain.ErrProductNotFound
	})
	return out, err
}

func (r *productRepository) Update(_ context.Context, product domain.Product) error {
	return r.s.write(func(st *state) error {
		current, ok := st.products[product.ID]
		if !ok {
			return domain.ErrProductNotFound
		}
		if slugTaken(st, product.Slug, product.ID) {
			return domain.ErrSlugTaken
		}
		// Счётчики меняются только своими операциями.
		product.Sold = current.Sold
		product.Rating = current.Rating
		product.Reviews = current.Reviews
		product.CreatedAt = current.CreatedAt
		st.products[product.ID] = product.Clone()
		return nil
	})
}

func (r *productRepository) List(_ context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	var (
		page  []domain.Product
		total int
	)
	err := r.s.read(func(st *state) error {
		matched := make([]domain.Product, 0, len(st.products))
		for _, p := range st.products {
			if matchesProductFilter(p, filter) {
				matched = append(matched, p.Clone())
			}
		}
		sortProducts(matched, filter.Sort)
		total = len(matched)
		page = domain.Paginate(matched, filter.Page)
		return nil
	})
	return page, total, err
}

func (r *productRepository) DecrementStock(_ context.Context, id string, qty int) (domain.Product, error) {
	var out domain.Product
	err := r.s.write(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		if qty <= 0 {
			return domain.ErrItemQuantityInvalid
		}
		if p.Stock < qty {
			return fmt.Errorf("%w: %q has only %d left", domain.ErrInsufficientStock, p.Name, p.Stock)
		}
		p.Stock -= qty
		st.products[id] = p
		out = p.Clone()
		return nil
	})
	return out, err
}

func (r *productRepository) IncrementStock(_ context.Context, id string, qty int) error {
	return r.adjust(id, func(p *domain.Product) { p.Stock += qty })
}

func (r *productRepository) IncrementSold(_ context.Context, id string, qty int) error {
	return r.adjust(id, func(p *domain.Product) { p.Sold += qty })
}

func (r *productRepository) SetRating(_ context.Context, id string, rating float64, reviews int) error {
	return r.adjust(id, func(p *domain.Product) {
		p.Rating = rating
		p.Reviews = reviews
	})
}

func (r *productRepository) adjust(id string, mut func(p *domain.Product)) error {
	return r.s.write(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		mut(&p)
		st.products[id] = p
		return nil
	})
}

func slugTaken(st *state, slug, selfID string) bool {
	if slug == "" {
		return false
	}
	for id, p := range st.products {
		if id != selfID && p.Slug == slug {
			return true
		}
	}
	return false
}

func matchesProductFilter(p domain.Product, f domain.ProductFilter) bool {
	if !f.IncludeInactive && !p.IsActive {
		return false
	}
	if f.CategoryID != "" && p.CategoryID != f.CategoryID {
		return false
	}
	if f.BrandID != "" && p.BrandID != f.BrandID {
		return false
	}
	if f.MinPrice > 0 && p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if (f.OnlyFeatured && !p.IsFeatured) || (f.OnlyNewArrival && !p.IsNewArrival) || (f.OnlyXakho && !p.IsXakho) {
		return false
	}
	if f.OnlyInStock && p.Stock <= 0 {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

func sortProducts(items []domain.Product, order domain.ProductSort) {
	less := func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	}
	switch order {
	case domain.ProductSortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Price != items[j].Price {
				return items[i].Price < items[j].Price
			}
			return less(i, j)
		})
	case domain.ProductSortPriceDesc:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Price != items[j].Price {
				return items[i].Price > items[j].Price
			}
			return less(i, j)
		})
	case domain.ProductSortBestSelling:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Sold != items[j].Sold {
				return items[i].Sold > items[j].Sold
			}
			return less(i, j)
		})
	case domain.ProductSortRating:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Rating != items[j].Rating {
				return items[i].Rating > items[j].Rating
			}
			return less(i, j)
		})
	default:
		sort.SliceStable(items, less)
	}
}

var _ domain.ProductRepository = (*productRepository)(nil)
