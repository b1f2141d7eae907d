package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const productColumns = `
	id, name, slug, description, price, original_price, stock, sold, rating, reviews,
	images, sizes, colors, category_id, brand_id,
	is_active, is_xakho, is_featured, is_new_arrival, created_at, updated_at`

type productRepository struct {
	q querier
}

// rowScanner — общее подмножество *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p                     domain.Product
		images, sizes, colors []byte
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.OriginalPrice, &p.Stock, &p.Sold, &p.Rating, &p.Reviews,
		&images, &sizes, &colors, &p.CategoryID, &p.BrandID,
		&p.IsActive, &p.IsXakho, &p.IsFeatured, &p.IsNewArrival, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	for _, f := range []struct {
		raw []byte
		dst *[]string
	}{{images, &p.Images}, {sizes, &p.Sizes}, {colors, &p.Colors}} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return domain.Product{}, fmt.Errorf("decode product %s attributes: %w", p.ID, err)
		}
	}
	return p, nil
}

func stringList(values []string) []byte {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return raw
}

func (r *productRepository) Create(ctx context.Context, p domain.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.OriginalPrice, p.Stock, p.Sold, p.Rating, p.Reviews,
		stringList(p.Images), stringList(p.Sizes), stringList(p.Colors), p.CategoryID, p.BrandID,
		p.IsActive, p.IsXakho, p.IsFeatured, p.IsNewArrival, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && constraintName(err) == "products_slug_key" {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	return r.getBy(ctx, "id", id)
}

func (r *productRepository) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	return r.getBy(ctx, "slug", slug)
}

func (r *productRepository) getBy(ctx context.Context, column, value string) (domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE `+column+` = $1`, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

// Update не трогает sold, rating и reviews: у них свои операции.
func (r *productRepository) Update(ctx context.Context, p domain.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, original_price = $6, stock = $7,
		    images = $8, sizes = $9, colors = $10, category_id = $11, brand_id = $12,
		    is_active = $13, is_xakho = $14, is_featured = $15, is_new_arrival = $16, updated_at = $17
		WHERE id = $1
	`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.OriginalPrice, p.Stock,
		stringList(p.Images), stringList(p.Sizes), stringList(p.Colors), p.CategoryID, p.BrandID,
		p.IsActive, p.IsXakho, p.IsFeatured, p.IsNewArrival, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && constraintName(err) == "products_slug_key" {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("update product: %w", err)
	}
	return expectAffected(res, domain.ErrProductNotFound)
}

func (r *productRepository) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.IncludeInactive {
		conds = append(conds, "is_active")
	}
	if f.CategoryID != "" {
		add("category_id = $%d", f.CategoryID)
	}
	if f.BrandID != "" {
		add("brand_id = $%d", f.BrandID)
	}
	if f.MinPrice > 0 {
		add("price >= $%d", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		add("price <= $%d", f.MaxPrice)
	}
	if f.OnlyFeatured {
		conds = append(conds, "is_featured")
	}
	if f.OnlyNewArrival {
		conds = append(conds, "is_new_arrival")
	}
	if f.OnlyXakho {
		conds = append(conds, "is_xakho")
	}
	if f.OnlyInStock {
		conds = append(conds, "stock > 0")
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		add("(name ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+escapeLike(q)+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	page := domain.NewPageRequest(f.Page.Page, f.Page.Limit)
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productColumns, where, productOrderBy(f.Sort), len(args)+1, len(args)+2)
	rows, err := r.q.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, page.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, total, nil
}

func productOrderBy(sort domain.ProductSort) string {
	const newest = "created_at DESC, id DESC"
	switch sort {
	case domain.ProductSortPriceAsc:
		return "price ASC, " + newest
	case domain.ProductSortPriceDesc:
		return "price DESC, " + newest
	case domain.ProductSortBestSelling:
		return "sold DESC, " + newest
	case domain.ProductSortRating:
		return "rating DESC, " + newest
	default:
		return newest
	}
}

// DecrementStock списывает остаток одним условным UPDATE, поэтому
// параллельные заказы не уводят stock ниже нуля.
func (r *productRepository) DecrementStock(ctx context.Context, id string, qty int) (domain.Product, error) {
	if qty <= 0 {
		return domain.Product{}, domain.ErrItemQuantityInvalid
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.q.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = $3
		WHERE id = $1 AND stock >= $2
		RETURNING `+productColumns,
		id, qty, time.Now().UTC(),
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("decrement stock: %w", err)
	}

	var (
		name  string
		stock int
	)
	err = r.q.QueryRowContext(ctx, `SELECT name, stock FROM products WHERE id = $1`, id).Scan(&name, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("check product stock: %w", err)
	}
	return domain.Product{}, fmt.Errorf("%w: %q has only %d left", domain.ErrInsufficientStock, name, stock)
}

func (r *productRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	return r.exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = $3 WHERE id = $1`, id, qty, time.Now().UTC())
}

func (r *productRepository) IncrementSold(ctx context.Context, id string, qty int) error {
	return r.exec(ctx, `UPDATE products SET sold = sold + $2, updated_at = $3 WHERE id = $1`, id, qty, time.Now().UTC())
}

func (r *productRepository) SetRating(ctx context.Context, id string, rating float64, reviews int) error {
	return r.exec(ctx, `UPDATE products SET rating = $2, reviews = $3, updated_at = $4 WHERE id = $1`, id, rating, reviews, time.Now().UTC())
}

func (r *productRepository) exec(ctx context.Context, query string, args ...any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update product counters: %w", err)
	}
	return expectAffected(res, domain.ErrProductNotFound)
}

func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ domain.ProductRepository = (*productRepository)(nil)
