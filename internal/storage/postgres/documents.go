package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Документы JSONB: позиции заказа, адрес, корзина и избранное хранятся
// вложенными, как снимки на момент записи.

type orderItemDoc struct {
	ProductID     string `json:"productId"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	Image         string `json:"image,omitempty"`
	Quantity      int    `json:"quantity"`
	SelectedSize  string `json:"selectedSize,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
}

type addressDoc struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	Province string `json:"province,omitempty"`
	Note     string `json:"note,omitempty"`
}

type cartItemDoc struct {
	ProductID     string `json:"productId"`
	Quantity      int    `json:"quantity"`
	Price         int64  `json:"price"`
	SelectedSize  string `json:"selectedSize,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
}

type wishlistItemDoc struct {
	ProductID string    `json:"productId"`
	AddedAt   time.Time `json:"addedAt"`
}

func encodeOrderItems(items []domain.OrderItem) ([]byte, error) {
	docs := make([]orderItemDoc, len(items))
	for i, it := range items {
		docs[i] = orderItemDoc(it)
	}
	return json.Marshal(docs)
}

func decodeOrderItems(raw []byte) ([]domain.OrderItem, error) {
	var docs []orderItemDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	items := make([]domain.OrderItem, len(docs))
	for i, d := range docs {
		items[i] = domain.OrderItem(d)
	}
	return items, nil
}

func encodeAddress(a domain.ShippingAddress) ([]byte, error) {
	return json.Marshal(addressDoc(a))
}

func decodeAddress(raw []byte) (domain.ShippingAddress, error) {
	var doc addressDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.ShippingAddress{}, fmt.Errorf("decode shipping address: %w", err)
	}
	return domain.ShippingAddress(doc), nil
}

func encodeCartItems(items []domain.CartItem) ([]byte, error) {
	docs := make([]cartItemDoc, len(items))
	for i, it := range items {
		docs[i] = cartItemDoc(it)
	}
	return json.Marshal(docs)
}

func decodeCartItems(raw []byte) ([]domain.CartItem, error) {
	var docs []cartItemDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	items := make([]domain.CartItem, len(docs))
	for i, d := range docs {
		items[i] = domain.CartItem(d)
	}
	return items, nil
}

func encodeWishlistItems(items []domain.WishlistItem) ([]byte, error) {
	docs := make([]wishlistItemDoc, len(items))
	for i, it := range items {
		docs[i] = wishlistItemDoc(it)
	}
	return json.Marshal(docs)
}

func decodeWishlistItems(raw []byte) ([]domain.WishlistItem, error) {
	var docs []wishlistItemDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode wishlist items: %w", err)
	}
	items := make([]domain.WishlistItem, len(docs))
	for i, d := range docs {
		items[i] = domain.WishlistItem(d)
	}
	return items, nil
}
