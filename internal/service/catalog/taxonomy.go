package catalog

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// TaxonomyInput — поля категории или бренда. Nil означает «не менять».
type TaxonomyInput struct {
	Name        *string
	Slug        *string
	Description *string
	Logo        *string
	IsActive    *bool
}

type taxonomy struct {
	name        string
	slug        string
	description string
	logo        string
	active      bool
}

func (in TaxonomyInput) apply(t *taxonomy) error {
	set(&t.name, in.Name, strings.TrimSpace)
	set(&t.slug, in.Slug, Slugify)
	set(&t.description, in.Description, strings.TrimSpace)
	set(&t.logo, in.Logo, strings.TrimSpace)
	if in.IsActive != nil {
		t.active = *in.IsActive
	}
	if t.name == "" {
		return domain.ErrNameRequired
	}
	if t.slug == "" {
		t.slug = Slugify(t.name)
	}
	return nil
}

// CreateCategory добавляет категорию и сбрасывает кеш.
func (s *Service) CreateCategory(ctx context.Context, in TaxonomyInput) (domain.Category, error) {
	t := taxonomy{active: true}
	if err := in.apply(&t); err != nil {
		return domain.Category{}, err
	}
	now := s.now().UTC()
	category := domain.Category{
		ID:          domain.NewID(),
		Name:        t.name,
		Slug:        t.slug,
		Description: t.description,
		IsActive:    t.active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.uow.Repos().Categories.Create(ctx, category); err != nil {
		return domain.Category{}, err
	}
	s.categories.invalidate()
	s.logger.WithFields(log.Fields{"category_id": category.ID, "slug": category.Slug}).Info("category created")
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, categoryID string, in TaxonomyInput) (domain.Category, error) {
	id, err := domain.NormalizeID(categoryID)
	if err != nil {
		return domain.Category{}, err
	}
	repo := s.uow.Repos().Categories
	category, err := repo.Get(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	t := taxonomy{name: category.Name, slug: category.Slug, description: category.Description, active: category.IsActive}
	if err := in.apply(&t); err != nil {
		return domain.Category{}, err
	}
	category.Name, category.Slug, category.Description, category.IsActive = t.name, t.slug, t.description, t.active
	category.UpdatedAt = s.now().UTC()
	if err := repo.Update(ctx, category); err != nil {
		return domain.Category{}, err
	}
	s.categories.invalidate()
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, categoryID string) error {
	id, err := domain.NormalizeID(categoryID)
	if err != nil {
		return err
	}
	if err := s.uow.Repos().Categories.Delete(ctx, id); err != nil {
		return err
	}
	s.categories.invalidate()
	s.logger.WithField("category_id", id).Info("category deleted")
	return nil
}

// ListCategories отдаёт публичный список из кеша; админский список всегда читается из хранилища.
func (s *Service) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	if includeInactive {
		return s.uow.Repos().Categories.List(ctx, true)
	}
	now := s.now()
	if cached, ok := s.categories.get(now); ok {
		return cached, nil
	}
	categories, err := s.uow.Repos().Categories.List(ctx, false)
	if err != nil {
		return nil, err
	}
	s.categories.set(categories, now)
	return categories, nil
}

func (s *Service) CreateBrand(ctx context.Context, in TaxonomyInput) (domain.Brand, error) {
	t := taxonomy{active: true}
	if err := in.apply(&t); err != nil {
		return domain.Brand{}, err
	}
	now := s.now().UTC()
	brand := domain.Brand{
		ID:          domain.NewID(),
		Name:        t.name,
		Slug:        t.slug,
		Description: t.description,
		Logo:        t.logo,
		IsActive:    t.active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.uow.Repos().Brands.Create(ctx, brand); err != nil {
		return domain.Brand{}, err
	}
	s.logger.WithFields(log.Fields{"brand_id": brand.ID, "slug": brand.Slug}).Info("brand created")
	return brand, nil
}

func (s *Service) UpdateBrand(ctx context.Context, brandID string, in TaxonomyInput) (domain.Brand, error) {
	id, err := domain.NormalizeID(brandID)
	if err != nil {
		return domain.Brand{}, err
	}
	repo := s.uow.Repos().Brands
	brand, err := repo.Get(ctx, id)
	if err != nil {
		return domain.Brand{}, err
	}
	t := taxonomy{name: brand.Name, slug: brand.Slug, description: brand.Description, logo: brand.Logo, active: brand.IsActive}
	if err := in.apply(&t); err != nil {
		return domain.Brand{}, err
	}
	brand.Name, brand.Slug, brand.Description, brand.Logo, brand.IsActive = t.name, t.slug, t.description, t.logo, t.active
	brand.UpdatedAt = s.now().UTC()
	if err := repo.Update(ctx, brand); err != nil {
		return domain.Brand{}, err
	}
	return brand, nil
}

func (s *Service) DeleteBrand(ctx context.Context, brandID string) error {
	id, err := domain.NormalizeID(brandID)
	if err != nil {
		return err
	}
	return s.uow.Repos().Brands.Delete(ctx, id)
}

func (s *Service) ListBrands(ctx context.Context, includeInactive bool) ([]domain.Brand, error) {
	return s.uow.Repos().Brands.List(ctx, includeInactive)
}
