package httpapi

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
	"github.com/vladislavdragonenkov/storefront/internal/service/wishlist"
)

// Заказы.

type orderItemJSON struct {
	ProductID     string `json:"productId"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	Image         string `json:"image,omitempty"`
	Quantity      int    `json:"quantity"`
	SelectedSize  string `json:"selectedSize,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
}

type addressJSON struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	Province string `json:"province,omitempty"`
	Note     string `json:"note,omitempty"`
}

func (a addressJSON) toDomain() domain.ShippingAddress {
	return domain.ShippingAddress(a)
}

type createOrderRequest struct {
	Items           []orderItemJSON `json:"items"`
	ShippingAddress addressJSON     `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	CustomerNote    string          `json:"customerNote"`
	Discount        int64           `json:"discount"`
	ShippingFee     int64           `json:"shippingFee"`
}

func (r createOrderRequest) toInput(userID string) order.CreateInput {
	items := make([]order.ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, order.ItemInput{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			Price:         it.Price,
			Name:          it.Name,
			Image:         it.Image,
			SelectedSize:  it.SelectedSize,
			SelectedColor: it.SelectedColor,
		})
	}
	return order.CreateInput{
		UserID:          userID,
		Items:           items,
		ShippingAddress: r.ShippingAddress.toDomain(),
		PaymentMethod:   domain.PaymentMethod(r.PaymentMethod),
		CustomerNote:    r.CustomerNote,
		Discount:        r.Discount,
		ShippingFee:     r.ShippingFee,
	}
}

type orderSummaryJSON struct {
	ID            string `json:"_id"`
	OrderCode     string `json:"orderCode"`
	Total         int64  `json:"total"`
	Status        string `json:"status"`
	PaymentMethod string `json:"paymentMethod"`
}

type paymentJSON struct {
	Method       string `json:"method"`
	Reference    string `json:"reference"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type createOrderResponse struct {
	Order   orderSummaryJSON `json:"order"`
	Payment *paymentJSON     `json:"payment,omitempty"`
}

func newCreateOrderResponse(res order.CreateResult) createOrderResponse {
	out := createOrderResponse{Order: orderSummaryJSON{
		ID:            res.Order.ID,
		OrderCode:     res.Order.OrderCode,
		Total:         res.Order.Total,
		Status:        string(res.Order.Status),
		PaymentMethod: string(res.Order.PaymentMethod),
	}}
	if p := res.Payment; p != nil {
		out.Payment = &paymentJSON{
			Method:       string(p.Method),
			Reference:    p.Reference,
			RedirectURL:  p.RedirectURL,
			Instructions: p.Instructions,
		}
	}
	return out
}

type orderJSON struct {
	ID              string          `json:"_id"`
	UserID          string          `json:"userId"`
	OrderCode       string          `json:"orderCode"`
	Items           []orderItemJSON `json:"items"`
	Subtotal        int64           `json:"subtotal"`
	ShippingFee     int64           `json:"shippingFee"`
	Discount        int64           `json:"discount"`
	Total           int64           `json:"total"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentStatus   string          `json:"paymentStatus"`
	Status          string          `json:"status"`
	ShippingAddress addressJSON     `json:"shippingAddress"`
	CustomerNote    string          `json:"customerNote,omitempty"`
	AdminNote       string          `json:"adminNote,omitempty"`
	CancelReason    string          `json:"cancelReason,omitempty"`
	PendingAt       time.Time       `json:"pendingAt"`
	ConfirmedAt     *time.Time      `json:"confirmedAt,omitempty"`
	ShippingAt      *time.Time      `json:"shippingAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func newOrderItemsJSON(items []domain.OrderItem) []orderItemJSON {
	out := make([]orderItemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, orderItemJSON(it))
	}
	return out
}

func newOrderJSON(o domain.Order) orderJSON {
	return orderJSON{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderCode:       o.OrderCode,
		Items:           newOrderItemsJSON(o.Items),
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		Discount:        o.Discount,
		Total:           o.Total,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		Status:          string(o.Status),
		ShippingAddress: addressJSON(o.ShippingAddress),
		CustomerNote:    o.CustomerNote,
		AdminNote:       o.AdminNote,
		CancelReason:    o.CancelReason,
		PendingAt:       o.PendingAt,
		ConfirmedAt:     o.ConfirmedAt,
		ShippingAt:      o.ShippingAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		PaidAt:          o.PaidAt,
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func newOrdersJSON(orders []domain.Order) []orderJSON {
	out := make([]orderJSON, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderJSON(o))
	}
	return out
}

type updateOrderRequest struct {
	Status        string  `json:"status"`
	PaymentStatus string  `json:"paymentStatus"`
	AdminNote     *string `json:"adminNote"`
	Override      bool    `json:"override"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type lookupJSON struct {
	ID              string          `json:"_id"`
	OrderCode       string          `json:"orderCode"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"paymentStatus"`
	PaymentMethod   string          `json:"paymentMethod"`
	Items           []orderItemJSON `json:"items"`
	Subtotal        int64           `json:"subtotal"`
	ShippingFee     int64           `json:"shippingFee"`
	Discount        int64           `json:"discount"`
	Total           int64           `json:"total"`
	CreatedAt       time.Time       `json:"createdAt"`
	ShippingAddress string          `json:"shippingAddress"`
}

func newLookupJSON(v order.LookupView) lookupJSON {
	return lookupJSON{
		ID:              v.ID,
		OrderCode:       v.OrderCode,
		Status:          string(v.Status),
		PaymentStatus:   string(v.PaymentStatus),
		PaymentMethod:   string(v.PaymentMethod),
		Items:           newOrderItemsJSON(v.Items),
		Subtotal:        v.Subtotal,
		ShippingFee:     v.ShippingFee,
		Discount:        v.Discount,
		Total:           v.Total,
		CreatedAt:       v.CreatedAt,
		ShippingAddress: v.ShippingSummary,
	}
}

type timelineJSON struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurredAt"`
}

func newTimelineJSON(events []domain.TimelineEvent) []timelineJSON {
	out := make([]timelineJSON, 0, len(events))
	for _, e := range events {
		out = append(out, timelineJSON{Type: e.Type, Reason: e.Reason, Occurred: e.Occurred})
	}
	return out
}

type stockMovementJSON struct {
	ProductID string    `json:"productId"`
	OrderID   string    `json:"orderId,omitempty"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

func newStockMovementsJSON(ms []domain.StockMovement) []stockMovementJSON {
	out := make([]stockMovementJSON, 0, len(ms))
	for _, m := range ms {
		out = append(out, stockMovementJSON{
			ProductID: m.ProductID,
			OrderID:   m.OrderID,
			Delta:     m.Delta,
			Reason:    string(m.Reason),
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}

// Каталог.

type productJSON struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"`
	OriginalPrice int64     `json:"originalPrice,omitempty"`
	Stock         int       `json:"stock"`
	Sold          int       `json:"sold"`
	Rating        float64   `json:"rating"`
	Reviews       int       `json:"reviews"`
	Images        []string  `json:"images"`
	Sizes         []string  `json:"sizes"`
	Colors        []string  `json:"colors"`
	CategoryID    string    `json:"categoryId,omitempty"`
	BrandID       string    `json:"brandId,omitempty"`
	IsActive      bool      `json:"isActive"`
	IsXakho       bool      `json:"isXakho"`
	IsFeatured    bool      `json:"isFeatured"`
	IsNewArrival  bool      `json:"isNewArrival"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func newProductJSON(p domain.Product) productJSON {
	return productJSON{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Stock:         p.Stock,
		Sold:          p.Sold,
		Rating:        p.Rating,
		Reviews:       p.Reviews,
		Images:        nonNil(p.Images),
		Sizes:         nonNil(p.Sizes),
		Colors:        nonNil(p.Colors),
		CategoryID:    p.CategoryID,
		BrandID:       p.BrandID,
		IsActive:      p.IsActive,
		IsXakho:       p.IsXakho,
		IsFeatured:    p.IsFeatured,
		IsNewArrival:  p.IsNewArrival,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func newProductsJSON(products []domain.Product) []productJSON {
	out := make([]productJSON, 0, len(products))
	for _, p := range products {
		out = append(out, newProductJSON(p))
	}
	return out
}

type productRequest struct {
	Name          *string  `json:"name"`
	Slug          *string  `json:"slug"`
	Description   *string  `json:"description"`
	Price         *int64   `json:"price"`
	OriginalPrice *int64   `json:"originalPrice"`
	Stock         *int     `json:"stock"`
	Images        []string `json:"images"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	CategoryID    *string  `json:"categoryId"`
	BrandID       *string  `json:"brandId"`
	IsActive      *bool    `json:"isActive"`
	IsXakho       *bool    `json:"isXakho"`
	IsFeatured    *bool    `json:"isFeatured"`
	IsNewArrival  *bool    `json:"isNewArrival"`
}

type taxonomyRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Logo        *string `json:"logo"`
	IsActive    *bool   `json:"isActive"`
}

type categoryJSON struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newCategoryJSON(c domain.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description, IsActive: c.IsActive, CreatedAt: c.CreatedAt}
}

type brandJSON struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newBrandJSON(b domain.Brand) brandJSON {
	return brandJSON{ID: b.ID, Name: b.Name, Slug: b.Slug, Description: b.Description, Logo: b.Logo, IsActive: b.IsActive, CreatedAt: b.CreatedAt}
}

// Корзина и избранное.

type cartItemJSON struct {
	ProductID     string `json:"productId"`
	Quantity      int    `json:"quantity"`
	Price         int64  `json:"price"`
	SelectedSize  string `json:"selectedSize,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
	ImageURL      string `json:"image,omitempty"`
}

type cartJSON struct {
	ID     string         `json:"_id,omitempty"`
	UserID string         `json:"userId"`
	Items  []cartItemJSON `json:"items"`
	Total  int64          `json:"total"`
}

func newCartJSON(c domain.Cart) cartJSON {
	items := make([]cartItemJSON, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemJSON(it))
	}
	return cartJSON{ID: c.ID, UserID: c.UserID, Items: items, Total: c.Total()}
}

type cartItemRequest struct {
	ProductID     string `json:"productId"`
	Quantity      int    `json:"quantity"`
	SelectedSize  string `json:"selectedSize"`
	SelectedColor string `json:"selectedColor"`
}

type wishlistEntryJSON struct {
	Product productJSON `json:"product"`
	AddedAt time.Time   `json:"addedAt"`
}

func newWishlistJSON(entries []wishlist.Entry) []wishlistEntryJSON {
	out := make([]wishlistEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, wishlistEntryJSON{Product: newProductJSON(e.Product), AddedAt: e.AddedAt})
	}
	return out
}

// Отзывы.

type reviewJSON struct {
	ID                 string     `json:"_id"`
	UserID             string     `json:"userId"`
	ProductID          string     `json:"productId"`
	Rating             int        `json:"rating"`
	Comment            string     `json:"comment"`
	Status             string     `json:"status"`
	IsVerifiedPurchase bool       `json:"isVerifiedPurchase"`
	AdminReply         string     `json:"adminReply,omitempty"`
	RepliedAt          *time.Time `json:"repliedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func newReviewJSON(r domain.Review) reviewJSON {
	return reviewJSON{
		ID:                 r.ID,
		UserID:             r.UserID,
		ProductID:          r.ProductID,
		Rating:             r.Rating,
		Comment:            r.Comment,
		Status:             string(r.Status),
		IsVerifiedPurchase: r.IsVerifiedPurchase,
		AdminReply:         r.AdminReply,
		RepliedAt:          r.RepliedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func newReviewsJSON(reviews []domain.Review) []reviewJSON {
	out := make([]reviewJSON, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, newReviewJSON(r))
	}
	return out
}

type reviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type moderateRequest struct {
	Status string `json:"status"`
}

type replyRequest struct {
	Reply string `json:"reply"`
}
