package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus описывает жизненный цикл заказа в магазине.
type OrderStatus string

const (
	// OrderStatusPending — заказ оформлен и ждёт подтверждения магазином.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed — заказ подтверждён и собирается.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusShipping — заказ передан в доставку.
	OrderStatusShipping OrderStatus = "shipping"
	// OrderStatusDelivered — заказ вручён покупателю.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён, товар возвращён на склад.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid проверяет, что статус входит в известный набор.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipping, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal сообщает, что из статуса нет штатных переходов.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ParseOrderStatus разбирает статус из внешнего ввода.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrOrderStatusInvalid, raw)
	}
	return status, nil
}

// PaymentStatus описывает состояние оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid проверяет, что статус оплаты поддерживается.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// PaymentMethod — способ оплаты, выбранный при оформлении.
type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMomo         PaymentMethod = "momo"
	PaymentMethodVNPay        PaymentMethod = "vnpay"
)

// Valid проверяет, что способ оплаты поддерживается.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodBankTransfer, PaymentMethodMomo, PaymentMethodVNPay:
		return true
	default:
		return false
	}
}

// ShippingAddress — структурированный адрес доставки.
type ShippingAddress struct {
	FullName string
	Phone    string
	Street   string
	Ward     string
	District string
	Province string
	Note     string
}

// Validate проверяет обязательные поля адреса и называет первое отсутствующее.
func (a ShippingAddress) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"fullName", a.FullName},
		{"phone", a.Phone},
		{"street", a.Street},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrShippingAddressIncomplete, r.field)
		}
	}
	return nil
}

// Summary собирает адрес в одну строку для публичного поиска заказа.
func (a ShippingAddress) Summary() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.Ward, a.District, a.Province} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return fmt.Sprintf("%s - %s - %s", strings.TrimSpace(a.FullName), strings.TrimSpace(a.Phone), strings.Join(parts, ", "))
}

// NormalizePhone убирает из телефона все пробельные символы.
func NormalizePhone(phone string) string {
	return strings.Join(strings.Fields(phone), "")
}

// MatchesPhone сообщает, содержит ли телефон получателя фрагмент phone.
// Пустой phone подходит под любой адрес.
func (a ShippingAddress) MatchesPhone(phone string) bool {
	phone = NormalizePhone(phone)
	return phone == "" || strings.Contains(NormalizePhone(a.Phone), phone)
}

// OrderItem — снимок товара на момент оформления заказа.
// Цена и название не меняются, даже если товар позже отредактирован.
type OrderItem struct {
	ProductID     string
	Name          string
	Price         int64
	Image         string
	Quantity      int
	SelectedSize  string
	SelectedColor string
}

// LineTotal возвращает стоимость позиции.
func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID              string
	UserID          string
	OrderCode       string
	Items           []OrderItem
	Subtotal        int64
	ShippingFee     int64
	Discount        int64
	Total           int64
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	Status          OrderStatus
	ShippingAddress ShippingAddress
	CustomerNote    string
	AdminNote       string
	CancelReason    string

	PendingAt   time.Time
	ConfirmedAt *time.Time
	ShippingAt  *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	PaidAt      *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComputeTotals считает subtotal и total по позициям.
func ComputeTotals(items []OrderItem, shippingFee, discount int64) (subtotal, total int64) {
	for _, item := range items {
		subtotal += item.LineTotal()
	}
	return subtotal, subtotal + shippingFee - discount
}

// OwnedBy сообщает, принадлежит ли заказ пользователю.
func (o Order) OwnedBy(userID string) bool {
	return userID != "" && o.UserID == userID
}

// Clone возвращает глубокую копию заказа.
func (o Order) Clone() Order {
	out := o
	out.Items = append([]OrderItem(nil), o.Items...)
	out.ConfirmedAt = cloneTime(o.ConfirmedAt)
	out.ShippingAt = cloneTime(o.ShippingAt)
	out.DeliveredAt = cloneTime(o.DeliveredAt)
	out.CancelledAt = cloneTime(o.CancelledAt)
	out.PaidAt = cloneTime(o.PaidAt)
	return out
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.ShippingFee < 0 || o.Discount < 0 {
		errs = append(errs, ErrAmountNegative)
	}
	if err := o.ShippingAddress.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !o.PaymentMethod.Valid() {
		errs = append(errs, ErrPaymentMethodInvalid)
	}

	var calc int64
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQuantityInvalid)
		}
		if item.Price < 0 {
			errs = append(errs, ErrAmountNegative)
		}
		calc += item.LineTotal()
	}
	if calc != o.Subtotal || o.Subtotal+o.ShippingFee-o.Discount != o.Total {
		errs = append(errs, fmt.Errorf("order totals do not match items"))
	}
	if o.Total < 0 {
		errs = append(errs, ErrTotalNegative)
	}

	return errs
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
