package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cartRepository struct {
	q querier
}

func (r *cartRepository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cart := domain.Cart{UserID: userID}
	var items []byte
	err := r.q.QueryRowContext(ctx, `
		SELECT id, items, created_at, updated_at FROM carts WHERE user_id = $1
	`, userID).Scan(&cart.ID, &items, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		cart.Items = []domain.CartItem{}
		return cart, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}
	if cart.Items, err = decodeCartItems(items); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// Save делает upsert; id и created_at первой записи сохраняются.
func (r *cartRepository) Save(ctx context.Context, cart domain.Cart) error {
	items, err := encodeCartItems(cart.Items)
	if err != nil {
		return err
	}
	if cart.ID == "" {
		cart.ID = domain.NewID()
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO carts (user_id, id, items, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id) DO UPDATE
		SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
	`, cart.UserID, cart.ID, items, cart.CreatedAt, cart.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

type wishlistRepository struct {
	q querier
}

func (r *wishlistRepository) Get(ctx context.Context, userID string) (domain.Wishlist, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	w := domain.Wishlist{UserID: userID}
	var items []byte
	err := r.q.QueryRowContext(ctx, `
		SELECT id, items, created_at, updated_at FROM wishlists WHERE user_id = $1
	`, userID).Scan(&w.ID, &items, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		w.Items = []domain.WishlistItem{}
		return w, nil
	}
	if err != nil {
		return domain.Wishlist{}, fmt.Errorf("select wishlist: %w", err)
	}
	if w.Items, err = decodeWishlistItems(items); err != nil {
		return domain.Wishlist{}, err
	}
	return w, nil
}

func (r *wishlistRepository) Save(ctx context.Context, w domain.Wishlist) error {
	items, err := encodeWishlistItems(w.Items)
	if err != nil {
		return err
	}
	if w.ID == "" {
		w.ID = domain.NewID()
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO wishlists (user_id, id, items, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id) DO UPDATE
		SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
	`, w.UserID, w.ID, items, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save wishlist: %w", err)
	}
	return nil
}

var (
	_ domain.CartRepository     = (*cartRepository)(nil)
	_ domain.WishlistRepository = (*wishlistRepository)(nil)
)
