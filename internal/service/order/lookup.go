package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// LookupNotFoundMessage — ответ публичного поиска, когда заказ не найден.
const LookupNotFoundMessage = "Không tìm thấy đơn hàng. Vui lòng kiểm tra lại mã đơn hàng."

// LookupView — урезанная проекция заказа для публичного поиска, без userId.
type LookupView struct {
	ID              string
	OrderCode       string
	Status          domain.OrderStatus
	PaymentStatus   domain.PaymentStatus
	PaymentMethod   domain.PaymentMethod
	Items           []domain.OrderItem
	Subtotal        int64
	ShippingFee     int64
	Discount        int64
	Total           int64
	CreatedAt       time.Time
	ShippingSummary string
}

func newLookupView(o domain.Order) LookupView {
	return LookupView{
		ID:              o.ID,
		OrderCode:       o.OrderCode,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		Items:           append([]domain.OrderItem(nil), o.Items...),
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		Discount:        o.Discount,
		Total:           o.Total,
		CreatedAt:       o.CreatedAt,
		ShippingSummary: o.ShippingAddress.Summary(),
	}
}

// Стратегии поиска, в порядке применения.
const (
	lookupByID       = "id"
	lookupByIDSuffix = "id_suffix"
	lookupByCode     = "order_code"
	lookupByShipping = "shipping"
	lookupMiss       = "miss"
)

// Lookup ищет заказ без авторизации. Первое совпадение выигрывает:
// полный id, 6 hex-символов окончания id, код заказа, подстрока адреса или кода.
// Если задан phone, кандидаты с другим телефоном пропускаются.
func (s *Service) Lookup(ctx context.Context, key, phone string) (LookupView, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return LookupView{}, fmt.Errorf("%w: key is empty", domain.ErrLookupKeyInvalid)
	}
	phone = domain.NormalizePhone(phone)

	order, strategy, err := s.resolve(ctx, key, phone)
	if errors.Is(err, domain.ErrOrderNotFound) {
		s.metrics.RecordLookup(lookupMiss)
		return LookupView{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, LookupNotFoundMessage)
	}
	if err != nil {
		return LookupView{}, err
	}
	s.metrics.RecordLookup(strategy)
	return newLookupView(order), nil
}

func (s *Service) resolve(ctx context.Context, key, phone string) (domain.Order, string, error) {
	orders := s.uow.Repos().Orders
	matches := func(o domain.Order) bool {
		return o.ShippingAddress.MatchesPhone(phone)
	}
	first := func(candidates []domain.Order) (domain.Order, bool) {
		for _, o := range candidates {
			if matches(o) {
				return o, true
			}
		}
		return domain.Order{}, false
	}

	lower := strings.ToLower(key)
	if domain.IsValidID(lower) {
		o, err := orders.Get(ctx, lower)
		switch {
		case err == nil && matches(o):
			return o, lookupByID, nil
		case err != nil && !errors.Is(err, domain.ErrOrderNotFound):
			return domain.Order{}, "", err
		}
	}

	if len(key) == domain.IDSuffixLength && domain.IsHex(key) {
		candidates, err := orders.FindByIDSuffix(ctx, lower)
		if err != nil {
			return domain.Order{}, "", err
		}
		if o, ok := first(candidates); ok {
			return o, lookupByIDSuffix, nil
		}
	}

	o, err := orders.FindByCode(ctx, key)
	switch {
	case err == nil && matches(o):
		return o, lookupByCode, nil
	case err != nil && !errors.Is(err, domain.ErrOrderNotFound):
		return domain.Order{}, "", err
	}

	if len([]rune(key)) >= domain.IDSuffixLength {
		candidates, err := orders.SearchShipping(ctx, domain.ShippingSearch{
			Text:  key,
			Phone: phone,
			Limit: lookupSearchLimit,
		})
		if err != nil {
			return domain.Order{}, "", err
		}
		if o, ok := first(candidates); ok {
			return o, lookupByShipping, nil
		}
	}

	return domain.Order{}, "", domain.ErrOrderNotFound
}
