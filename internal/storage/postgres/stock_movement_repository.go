package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type stockMovementRepository struct {
	q querier
}

func (r *stockMovementRepository) Append(ctx context.Context, movements ...domain.StockMovement) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	for _, m := range movements {
		if err := m.Validate(); err != nil {
			return err
		}
		if m.ID == "" {
			m.ID = domain.NewID()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO stock_movements (id, product_id, order_id, delta, reason, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, m.ID, m.ProductID, m.OrderID, m.Delta, string(m.Reason), m.CreatedAt); err != nil {
			return fmt.Errorf("insert stock movement: %w", err)
		}
	}
	return nil
}

func (r *stockMovementRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.StockMovement, error) {
	return r.list(ctx, `
		SELECT id, product_id, order_id, delta, reason, created_at
		FROM stock_movements
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
}

func (r *stockMovementRepository) ListByProduct(ctx context.Context, productID string, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 {
		limit = domain.MaxPageLimit
	}
	return r.list(ctx, `
		SELECT id, product_id, order_id, delta, reason, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, productID, limit)
}

func (r *stockMovementRepository) list(ctx context.Context, query string, args ...any) ([]domain.StockMovement, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	result := make([]domain.StockMovement, 0)
	for rows.Next() {
		var (
			m      domain.StockMovement
			reason string
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &m.OrderID, &m.Delta, &reason, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Reason = domain.StockMovementReason(reason)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}
	return result, nil
}

var _ domain.StockMovementRepository = (*stockMovementRepository)(nil)
