package memory

import (
	"context"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cartRepository struct {
	s *session
}

func (r *cartRepository) Get(_ context.Context, userID string) (domain.Cart, error) {
	var out domain.Cart
	err := r.s.read(func(st *state) error {
		cart, ok := st.carts[userID]
		if !ok {
			out = domain.Cart{UserID: userID, Items: []domain.CartItem{}}
			return nil
		}
		out = cart.Clone()
		return nil
	})
	return out, err
}

func (r *cartRepository) Save(_ context.Context, cart domain.Cart) error {
	return r.s.write(func(st *state) error {
		if current, ok := st.carts[cart.UserID]; ok {
			cart.ID = current.ID
			cart.CreatedAt = current.CreatedAt
		} else if cart.ID == "" {
			cart.ID = domain.NewID()
		}
		st.carts[cart.UserID] = cart.Clone()
		return nil
	})
}

type wishlistRepository struct {
	s *session
}

func (r *wishlistRepository) Get(_ context.Context, userID string) (domain.Wishlist, error) {
	var out domain.Wishlist
	err := r.s.read(func(st *state) error {
		w, ok := st.wishlists[userID]
		if !ok {
			out = domain.Wishlist{UserID: userID, Items: []domain.WishlistItem{}}
			return nil
		}
		out = w.Clone()
		return nil
	})
	return out, err
}

func (r *wishlistRepository) Save(_ context.Context, w domain.Wishlist) error {
	return r.s.write(func(st *state) error {
		if current, ok := st.wishlists[w.UserID]; ok {
			w.ID = current.ID
			w.CreatedAt = current.CreatedAt
		} else if w.ID == "" {
			w.ID = domain.NewID()
		}
		st.wishlists[w.UserID] = w.Clone()
		return nil
	})
}

var (
	_ domain.CartRepository     = (*cartRepository)(nil)
	_ domain.WishlistRepository = (*wishlistRepository)(nil)
)
