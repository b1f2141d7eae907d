package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func (s *OrderServiceSuite) insertOrder(id, code, phone string, createdAt time.Time) domain.Order {
	addr := address()
	addr.Phone = phone
	o := domain.Order{
		ID:              id,
		UserID:          customer.UserID,
		OrderCode:       code,
		Items:           []domain.OrderItem{{ProductID: s.p1.ID, Name: s.p1.Name, Price: s.p1.Price, Quantity: 1}},
		Subtotal:        s.p1.Price,
		Total:           s.p1.Price,
		PaymentMethod:   domain.PaymentMethodCOD,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		Status:          domain.OrderStatusPending,
		ShippingAddress: addr,
		PendingAt:       createdAt,
		Version:         1,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	s.Require().NoError(s.store.Repos().Orders.Create(s.ctx, o))
	return o
}

func (s *OrderServiceSuite) TestLookup_ByIDAndCode() {
	order := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 2})

	view, err := s.svc.Lookup(s.ctx, strings.ToUpper(order.ID), "")
	s.Require().NoError(err)
	s.Equal(order.OrderCode, view.OrderCode)
	s.Equal(order.Total, view.Total)
	s.Equal("Nguyễn Văn A - 0901234567 - 12 Lê Lợi, Bến Nghé, Quận 1, TP HCM", view.ShippingSummary)

	view, err = s.svc.Lookup(s.ctx, "  "+strings.ToLower(order.OrderCode)+" ", "")
	s.Require().NoError(err)
	s.Equal(order.ID, view.ID)
}

func (s *OrderServiceSuite) TestLookup_SuffixPrefersNewestOrder() {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	s.insertOrder("65a1b2c3d4e5f60718abc123", "ORD000000011001", "0901111111", base.Add(time.Hour))
	older := s.insertOrder("75a1b2c3d4e5f60718abc123", "ORD000000021002", "0902222222", base)

	view, err := s.svc.Lookup(s.ctx, "ABC123", "")
	s.Require().NoError(err)
	s.Equal("65a1b2c3d4e5f60718abc123", view.ID)

	view, err = s.svc.Lookup(s.ctx, "abc123", "090 222 2222")
	s.Require().NoError(err)
	s.Equal(older.ID, view.ID, "phone filter skips the newer candidate")
}

func (s *OrderServiceSuite) TestLookup_ShippingSearch() {
	order := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 1})

	view, err := s.svc.Lookup(s.ctx, "Bến Nghé", "")
	s.Require().NoError(err)
	s.Equal(order.ID, view.ID)

	_, err = s.svc.Lookup(s.ctx, "Bến Nghé", "0999999999")
	s.Require().ErrorIs(err, domain.ErrOrderNotFound)
}

func (s *OrderServiceSuite) TestLookup_ShippingPhoneFilterReachesOlderOrders() {
	base := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	older := s.insertOrder(domain.NewID(), "ORD000000099999", "0902222222", base)
	var newest domain.Order
	for i := 0; i < lookupSearchLimit+10; i++ {
		newest = s.insertOrder(domain.NewID(), fmt.Sprintf("ORD0000%08d", i), "0901111111", base.Add(time.Duration(i+1)*time.Minute))
	}

	view, err := s.svc.Lookup(s.ctx, "Bến Nghé", "")
	s.Require().NoError(err)
	s.Equal(newest.ID, view.ID)

	view, err = s.svc.Lookup(s.ctx, "Bến Nghé", "090 222 2222")
	s.Require().NoError(err)
	s.Equal(older.ID, view.ID, "phone filter must apply before the search limit")
}

func (s *OrderServiceSuite) TestLookup_Misses() {
	s.place(ItemInput{ProductID: s.p1.ID, Quantity: 1})

	_, err := s.svc.Lookup(s.ctx, "   ", "")
	s.Require().ErrorIs(err, domain.ErrLookupKeyInvalid)

	for _, key := range []string{"ORD999999999999", "ffffff", domain.NewID(), "xyz"} {
		_, err = s.svc.Lookup(s.ctx, key, "")
		s.Require().ErrorIs(err, domain.ErrOrderNotFound, key)
		s.Contains(err.Error(), LookupNotFoundMessage)
	}
}
