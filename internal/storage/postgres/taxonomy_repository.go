package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type categoryRepository struct {
	q querier
}

func (r *categoryRepository) Create(ctx context.Context, c domain.Category) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, description, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, c.ID, c.Name, c.Slug, c.Description, c.IsActive, c.CreatedAt, c.UpdatedAt)
	return taxonomyWriteErr(err, "insert category")
}

func (r *categoryRepository) Get(ctx context.Context, id string) (domain.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var c domain.Category
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name, slug, description, is_active, created_at, updated_at
		FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("select category: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) Update(ctx context.Context, c domain.Category) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE categories SET name = $2, slug = $3, description = $4, is_active = $5, updated_at = $6
		WHERE id = $1
	`, c.ID, c.Name, c.Slug, c.Description, c.IsActive, c.UpdatedAt)
	if err := taxonomyWriteErr(err, "update category"); err != nil {
		return err
	}
	return expectAffected(res, domain.ErrCategoryNotFound)
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectAffected(res, domain.ErrCategoryNotFound)
}

func (r *categoryRepository) List(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, slug, description, is_active, created_at, updated_at
		FROM categories
		WHERE is_active OR $1
		ORDER BY name
	`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return result, nil
}

type brandRepository struct {
	q querier
}

func (r *brandRepository) Create(ctx context.Context, b domain.Brand) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO brands (id, name, slug, description, logo, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, b.ID, b.Name, b.Slug, b.Description, b.Logo, b.IsActive, b.CreatedAt, b.UpdatedAt)
	return taxonomyWriteErr(err, "insert brand")
}

func (r *brandRepository) Get(ctx context.Context, id string) (domain.Brand, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var b domain.Brand
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name, slug, description, logo, is_active, created_at, updated_at
		FROM brands WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Slug, &b.Description, &b.Logo, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Brand{}, domain.ErrBrandNotFound
	}
	if err != nil {
		return domain.Brand{}, fmt.Errorf("select brand: %w", err)
	}
	return b, nil
}

func (r *brandRepository) Update(ctx context.Context, b domain.Brand) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE brands SET name = $2, slug = $3, description = $4, logo = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`, b.ID, b.Name, b.Slug, b.Description, b.Logo, b.IsActive, b.UpdatedAt)
	if err := taxonomyWriteErr(err, "update brand"); err != nil {
		return err
	}
	return expectAffected(res, domain.ErrBrandNotFound)
}

func (r *brandRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	return expectAffected(res, domain.ErrBrandNotFound)
}

func (r *brandRepository) List(ctx context.Context, includeInactive bool) ([]domain.Brand, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, slug, description, logo, is_active, created_at, updated_at
		FROM brands
		WHERE is_active OR $1
		ORDER BY name
	`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Brand, 0)
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.Description, &b.Logo, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brands: %w", err)
	}
	return result, nil
}

func taxonomyWriteErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return domain.ErrSlugTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	_ domain.CategoryRepository = (*categoryRepository)(nil)
	_ domain.BrandRepository    = (*brandRepository)(nil)
)
