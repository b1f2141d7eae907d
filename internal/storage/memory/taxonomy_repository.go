package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type categoryRepository struct {
	s *session
}

func (r *categoryRepository) Create(_ context.Context, c domain.Category) error {
	return r.s.write(func(st *state) error {
		for id, existing := range st.categories {
			if id != c.ID && existing.Slug == c.Slug {
				return domain.ErrSlugTaken
			}
		}
		st.categories[c.ID] = c
		return nil
	})
}

func (r *categoryRepository) Get(_ context.Context, id string) (domain.Category, error) {
	var out domain.Category
	err := r.s.read(func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return domain.ErrCategoryNotFound
		}
		out = c
		return nil
	})
	return out, err
}

func (r *categoryRepository) Update(_ context.Context, c domain.Category) error {
	return r.s.write(func(st *state) error {
		current, ok := st.categories[c.ID]
		if !ok {
			return domain.ErrCategoryNotFound
		}
		for id, existing := range st.categories {
			if id != c.ID && existing.Slug == c.Slug {
				return domain.ErrSlugTaken
			}
		}
		c.CreatedAt = current.CreatedAt
		st.categories[c.ID] = c
		return nil
	})
}

func (r *categoryRepository) Delete(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return domain.ErrCategoryNotFound
		}
		delete(st.categories, id)
		return nil
	})
}

func (r *categoryRepository) List(_ context.Context, includeInactive bool) ([]domain.Category, error) {
	var out []domain.Category
	err := r.s.read(func(st *state) error {
		out = make([]domain.Category, 0, len(st.categories))
		for _, c := range st.categories {
			if includeInactive || c.IsActive {
				out = append(out, c)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

type brandRepository struct {
	s *session
}

func (r *brandRepository) Create(_ context.Context, b domain.Brand) error {
	return r.s.write(func(st *state) error {
		for id, existing := range st.brands {
			if id != b.ID && existing.Slug == b.Slug {
				return domain.ErrSlugTaken
			}
		}
		st.brands[b.ID] = b
		return nil
	})
}

func (r *brandRepository) Get(_ context.Context, id string) (domain.Brand, error) {
	var out domain.Brand
	err := r.s.read(func(st *state) error {
		b, ok := st.brands[id]
		if !ok {
			return domain.ErrBrandNotFound
		}
		out = b
		return nil
	})
	return out, err
}

func (r *brandRepository) Update(_ context.Context, b domain.Brand) error {
	return r.s.write(func(st *state) error {
		current, ok := st.brands[b.ID]
		if !ok {
			return domain.ErrBrandNotFound
		}
		for id, existing := range st.brands {
			if id != b.ID && existing.Slug == b.Slug {
				return domain.ErrSlugTaken
			}
		}
		b.CreatedAt = current.CreatedAt
		st.brands[b.ID] = b
		return nil
	})
}

func (r *brandRepository) Delete(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.brands[id]; !ok {
			return domain.ErrBrandNotFound
		}
		delete(st.brands, id)
		return nil
	})
}

func (r *brandRepository) List(_ context.Context, includeInactive bool) ([]domain.Brand, error) {
	var out []domain.Brand
	err := r.s.read(func(st *state) error {
		out = make([]domain.Brand, 0, len(st.brands))
		for _, b := range st.brands {
			if includeInactive || b.IsActive {
				out = append(out, b)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

var (
	_ domain.CategoryRepository = (*categoryRepository)(nil)
	_ domain.BrandRepository    = (*brandRepository)(nil)
)
