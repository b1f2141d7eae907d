package domain

import "time"

// WishlistItem — товар в избранном.
type WishlistItem struct {
	ProductID string
	AddedAt   time.Time
}

// Wishlist — избранное пользователя.
type Wishlist struct {
	ID        string
	UserID    string
	Items     []WishlistItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Add добавляет товар, повторное добавление ничего не меняет.
func (w *Wishlist) Add(productID string, now time.Time) bool {
	if w.Contains(productID) {
		return false
	}
	w.Items = append(w.Items, WishlistItem{ProductID: productID, AddedAt: now})
	return true
}

// Remove убирает товар из избранного.
func (w *Wishlist) Remove(productID string) bool {
	for i, item := range w.Items {
		if item.ProductID == productID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains проверяет наличие товара.
func (w Wishlist) Contains(productID string) bool {
	for _, item := range w.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Clone копирует избранное.
func (w Wishlist) Clone() Wishlist {
	out := w
	out.Items = append([]WishlistItem(nil), w.Items...)
	return out
}
