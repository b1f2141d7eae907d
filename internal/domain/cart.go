package domain

import "time"

// CartItem — позиция корзины с ценой на момент добавления.
type CartItem struct {
	ProductID     string
	Quantity      int
	Price         int64
	SelectedSize  string
	SelectedColor string
	ImageURL      string
}

func (i CartItem) sameVariant(productID, size, color string) bool {
	return i.ProductID == productID && i.SelectedSize == size && i.SelectedColor == color
}

// Cart — корзина пользователя. Одна на пользователя, создаётся лениво.
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Add добавляет позицию или увеличивает количество уже существующего варианта.
func (c *Cart) Add(item CartItem) {
	for i := range c.Items {
		if c.Items[i].sameVariant(item.ProductID, item.SelectedSize, item.SelectedColor) {
			c.Items[i].Quantity += item.Quantity
			c.Items[i].Price = item.Price
			c.Items[i].ImageURL = item.ImageURL
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Find возвращает позицию варианта товара.
func (c Cart) Find(productID, size, color string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.sameVariant(productID, size, color) {
			return item, true
		}
	}
	return CartItem{}, false
}

// SetQuantity меняет количество; ноль удаляет позицию.
func (c *Cart) SetQuantity(productID, size, color string, qty int) error {
	if qty < 0 {
		return ErrItemQuantityInvalid
	}
	for i := range c.Items {
		if !c.Items[i].sameVariant(productID, size, color) {
			continue
		}
		if qty == 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
		c.Items[i].Quantity = qty
		return nil
	}
	return ErrCartItemNotFound
}

// Remove удаляет все варианты товара из корзины.
func (c *Cart) Remove(productID string) error {
	kept := c.Items[:0]
	removed := false
	for _, item := range c.Items {
		if item.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	if !removed {
		return ErrCartItemNotFound
	}
	return nil
}

// Clear очищает корзину, сама корзина остаётся.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

// Total — сумма корзины по ценам снимков.
func (c Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// Clone копирует корзину.
func (c Cart) Clone() Cart {
	out := c
	out.Items = append([]CartItem(nil), c.Items...)
	return out
}
