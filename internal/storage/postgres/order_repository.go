package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const orderColumns = `
	id, user_id, order_code, items, subtotal, shipping_fee, discount, total,
	payment_method, payment_status, status, shipping_address,
	customer_note, admin_note, cancel_reason,
	pending_at, confirmed_at, shipping_at, delivered_at, cancelled_at, paid_at,
	version, created_at, updated_at`

type orderRepository struct {
	q querier
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o                              domain.Order
		items, address                 []byte
		method, payStatus, status      string
		confirmed, shipping, delivered sql.NullTime
		cancelled, paid                sql.NullTime
	)
	if err := row.Scan(
		&o.ID, &o.UserID, &o.OrderCode, &items, &o.Subtotal, &o.ShippingFee, &o.Discount, &o.Total,
		&method, &payStatus, &status, &address,
		&o.CustomerNote, &o.AdminNote, &o.CancelReason,
		&o.PendingAt, &confirmed, &shipping, &delivered, &cancelled, &paid,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}

	var err error
	if o.Items, err = decodeOrderItems(items); err != nil {
		return domain.Order{}, err
	}
	if o.ShippingAddress, err = decodeAddress(address); err != nil {
		return domain.Order{}, err
	}
	o.PaymentMethod = domain.PaymentMethod(method)
	o.PaymentStatus = domain.PaymentStatus(payStatus)
	o.Status = domain.OrderStatus(status)
	o.ConfirmedAt = timePtr(confirmed)
	o.ShippingAt = timePtr(shipping)
	o.DeliveredAt = timePtr(delivered)
	o.CancelledAt = timePtr(cancelled)
	o.PaidAt = timePtr(paid)
	return o, nil
}

func (r *orderRepository) Create(ctx context.Context, o domain.Order) error {
	items, err := encodeOrderItems(o.Items)
	if err != nil {
		return err
	}
	address, err := encodeAddress(o.ShippingAddress)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
	`,
		o.ID, o.UserID, o.OrderCode, items, o.Subtotal, o.ShippingFee, o.Discount, o.Total,
		string(o.PaymentMethod), string(o.PaymentStatus), string(o.Status), address,
		o.CustomerNote, o.AdminNote, o.CancelReason,
		o.PendingAt, nullTime(o.ConfirmedAt), nullTime(o.ShippingAt), nullTime(o.DeliveredAt), nullTime(o.CancelledAt), nullTime(o.PaidAt),
		o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintName(err) == "orders_order_code_key" {
				return domain.ErrDuplicateOrderCode
			}
			return domain.ErrOrderVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	o, err := scanOrder(r.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

// Save обновляет изменяемые поля заказа; позиции и суммы после оформления не меняются.
func (r *orderRepository) Save(ctx context.Context, o domain.Order) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $3,
		    status = $4,
		    admin_note = $5,
		    cancel_reason = $6,
		    confirmed_at = $7,
		    shipping_at = $8,
		    delivered_at = $9,
		    cancelled_at = $10,
		    paid_at = $11,
		    version = version + 1,
		    updated_at = $12
		WHERE id = $1
		  AND version = $2
	`,
		o.ID, o.Version,
		string(o.PaymentStatus), string(o.Status), o.AdminNote, o.CancelReason,
		nullTime(o.ConfirmedAt), nullTime(o.ShippingAt), nullTime(o.DeliveredAt), nullTime(o.CancelledAt), nullTime(o.PaidAt),
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return domain.ErrOrderNotFound
	}
	return domain.ErrOrderVersionConflict
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.q.ExecContext(ctx, `DELETE FROM timeline_events WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order timeline: %w", err)
	}
	res, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return expectAffected(res, domain.ErrOrderNotFound)
}

func (r *orderRepository) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const where = ` WHERE ($1::text = '' OR user_id = $1::text) AND ($2::text = '' OR status = $2::text)`
	args := []any{f.UserID, string(f.Status)}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	page := domain.NewPageRequest(f.Page.Page, f.Page.Limit)
	orders, err := r.query(ctx, `SELECT `+orderColumns+` FROM orders`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE UPPER(order_code) = UPPER($1))`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check order code: %w", err)
	}
	return exists, nil
}

func (r *orderRepository) FindByCode(ctx context.Context, code string) (domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	o, err := scanOrder(r.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE UPPER(order_code) = UPPER($1)`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order by code: %w", err)
	}
	return o, nil
}

func (r *orderRepository) FindByIDSuffix(ctx context.Context, suffix string) ([]domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE LOWER(id) LIKE '%' || LOWER($1::text)
		ORDER BY created_at DESC, id DESC`, escapeLike(suffix))
}

func (r *orderRepository) SearchShipping(ctx context.Context, q domain.ShippingSearch) ([]domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit := q.Limit
	if limit <= 0 {
		limit = domain.MaxPageLimit
	}
	pattern := "%" + escapeLike(q.Text) + "%"
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE (shipping_address->>'fullName' ILIKE $1
		   OR shipping_address->>'phone' ILIKE $1
		   OR shipping_address->>'street' ILIKE $1
		   OR COALESCE(shipping_address->>'ward', '') ILIKE $1
		   OR COALESCE(shipping_address->>'district', '') ILIKE $1
		   OR COALESCE(shipping_address->>'province', '') ILIKE $1
		   OR order_code ILIKE $1)
		  AND ($3 = '' OR regexp_replace(shipping_address->>'phone', '\s', '', 'g') LIKE '%' || $3 || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, pattern, limit, escapeLike(domain.NormalizePhone(q.Phone)))
}

func (r *orderRepository) HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var found bool
	err := r.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE user_id = $1
			  AND status = $2
			  AND items @> jsonb_build_array(jsonb_build_object('productId', $3::text))
		)
	`, userID, string(domain.OrderStatusDelivered), productID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check delivered product: %w", err)
	}
	return found, nil
}

func (r *orderRepository) query(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
