package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const reviewColumns = `id, user_id, product_id, rating, comment, status, is_verified_purchase, admin_reply, replied_at, created_at, updated_at`

type reviewRepository struct {
	q querier
}

func scanReview(row rowScanner) (domain.Review, error) {
	var (
		rv      domain.Review
		status  string
		replied sql.NullTime
	)
	if err := row.Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment, &status,
		&rv.IsVerifiedPurchase, &rv.AdminReply, &replied, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
		return domain.Review{}, err
	}
	rv.Status = domain.ReviewStatus(status)
	rv.RepliedAt = timePtr(replied)
	return rv, nil
}

func (r *reviewRepository) Create(ctx context.Context, rv domain.Review) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, rv.ID, rv.UserID, rv.ProductID, rv.Rating, rv.Comment, string(rv.Status),
		rv.IsVerifiedPurchase, rv.AdminReply, nullTime(rv.RepliedAt), rv.CreatedAt, rv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) && constraintName(err) == "reviews_user_product_key" {
			return domain.ErrReviewExists
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *reviewRepository) Get(ctx context.Context, id string) (domain.Review, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rv, err := scanReview(r.q.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Review{}, domain.ErrReviewNotFound
	}
	if err != nil {
		return domain.Review{}, fmt.Errorf("select review: %w", err)
	}
	return rv, nil
}

func (r *reviewRepository) Update(ctx context.Context, rv domain.Review) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE reviews
		SET rating = $2, comment = $3, status = $4, is_verified_purchase = $5,
		    admin_reply = $6, replied_at = $7, updated_at = $8
		WHERE id = $1
	`, rv.ID, rv.Rating, rv.Comment, string(rv.Status), rv.IsVerifiedPurchase,
		rv.AdminReply, nullTime(rv.RepliedAt), rv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return expectAffected(res, domain.ErrReviewNotFound)
}

func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return expectAffected(res, domain.ErrReviewNotFound)
}

func (r *reviewRepository) List(ctx context.Context, f domain.ReviewFilter) ([]domain.Review, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const where = ` WHERE ($1::text = '' OR product_id = $1::text)
		AND ($2::text = '' OR user_id = $2::text)
		AND ($3::text = '' OR status = $3::text)`
	args := []any{f.ProductID, f.UserID, string(f.Status)}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	page := domain.NewPageRequest(f.Page.Page, f.Page.Limit)
	rows, err := r.q.QueryContext(ctx, `SELECT `+reviewColumns+` FROM reviews`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0, page.Limit)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, total, nil
}

func (r *reviewRepository) ApprovedStats(ctx context.Context, productID string) (domain.RatingStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var stats domain.RatingStats
	err := r.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(rating), 0), COUNT(*)
		FROM reviews
		WHERE product_id = $1 AND status = $2
	`, productID, string(domain.ReviewStatusApproved)).Scan(&stats.Sum, &stats.Count)
	if err != nil {
		return domain.RatingStats{}, fmt.Errorf("approved review stats: %w", err)
	}
	return stats, nil
}

var _ domain.ReviewRepository = (*reviewRepository)(nil)
