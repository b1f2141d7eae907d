package order

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/payment"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

var (
	customer = domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}
	stranger = domain.Principal{UserID: "user-2", Role: domain.RoleCustomer}
	admin    = domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin}
)

type OrderServiceSuite struct {
	suite.Suite

	ctx     context.Context
	store   *memory.Store
	svc     *Service
	payment *payment.MockGateway
	clock   atomic.Int64
	p1      domain.Product
	p2      domain.Product
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.payment = payment.NewMockGateway()
	s.clock.Store(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC).Unix())

	s.p1 = s.seedProduct("Áo thun basic", 100000, 10)
	s.p2 = s.seedProduct("Quần jean", 350000, 1)

	s.svc = NewService(s.store,
		WithClock(s.tick),
		WithPaymentGateway(s.payment),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
	)
}

// tick — часы, которые сдвигаются на секунду при каждом чтении.
func (s *OrderServiceSuite) tick() time.Time {
	return time.Unix(s.clock.Add(1), 0).UTC()
}

func (s *OrderServiceSuite) seedProduct(name string, price int64, stock int) domain.Product {
	p := domain.Product{
		ID:       domain.NewID(),
		Name:     name,
		Slug:     strings.ReplaceAll(strings.ToLower(name), " ", "-") + "-" + domain.NewID()[18:],
		Price:    price,
		Stock:    stock,
		Images:   []string{"https://cdn.example.com/" + name + ".jpg"},
		IsActive: true,
	}
	s.Require().NoError(s.store.Repos().Products.Create(s.ctx, p))
	return p
}

func (s *OrderServiceSuite) product(id string) domain.Product {
	p, err := s.store.Repos().Products.Get(s.ctx, id)
	s.Require().NoError(err)
	return p
}

func address() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName: "Nguyễn Văn A",
		Phone:    "0901234567",
		Street:   "12 Lê Lợi",
		Ward:     "Bến Nghé",
		District: "Quận 1",
		Province: "TP HCM",
	}
}

func (s *OrderServiceSuite) place(items ...ItemInput) domain.Order {
	res, err := s.svc.Create(s.ctx, CreateInput{
		UserID:          customer.UserID,
		Items:           items,
		ShippingAddress: address(),
	})
	s.Require().NoError(err)
	return res.Order
}

func (s *OrderServiceSuite) TestEndToEnd_CreateThenCancelRestoresStock() {
	res, err := s.svc.Create(s.ctx, CreateInput{
		UserID:          customer.UserID,
		Items:           []ItemInput{{ProductID: s.p1.ID, Price: 100000, Quantity: 2}},
		ShippingAddress: address(),
		ShippingFee:     20000,
	})
	s.Require().NoError(err)

	order := res.Order
	s.Equal(int64(200000), order.Subtotal)
	s.Equal(int64(220000), order.Total)
	s.Equal(domain.OrderStatusPending, order.Status)
	s.Equal(domain.PaymentStatusUnpaid, order.PaymentStatus)
	s.Equal(domain.PaymentMethodCOD, order.PaymentMethod)
	s.Regexp(`^ORD\d{12}$`, order.OrderCode)
	s.Nil(res.Payment, "cod orders get no payment instruction")
	s.Equal(8, s.product(s.p1.ID).Stock)

	cancelled, err := s.svc.Cancel(s.ctx, customer, order.ID, "đổi ý")
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCancelled, cancelled.Status)
	s.NotNil(cancelled.CancelledAt)
	s.Equal("đổi ý", cancelled.CancelReason)
	s.Equal(10, s.product(s.p1.ID).Stock)
}

func (s *OrderServiceSuite) TestCreate_SnapshotsCatalogPrice() {
	order := s.place(ItemInput{ProductID: s.p1.ID, Price: 1, Name: "fake", Quantity: 3, SelectedSize: "M"})

	s.Require().Len(order.Items, 1)
	item := order.Items[0]
	s.Equal(s.p1.Price, item.Price)
	s.Equal(s.p1.Name, item.Name)
	s.Equal(s.p1.Images[0], item.Image)
	s.Equal("M", item.SelectedSize)
	s.Equal(int64(300000), order.Subtotal)

	// Правка товара не меняет снимок.
	p := s.product(s.p1.ID)
	p.Price = 999999
	s.Require().NoError(s.store.Repos().Products.Update(s.ctx, p))
	stored, err := s.svc.Get(s.ctx, customer, order.ID)
	s.Require().NoError(err)
	s.Equal(s.p1.Price, stored.Items[0].Price)
}

func (s *OrderServiceSuite) TestCreate_InsufficientStockMutatesNothing() {
	_, err := s.svc.Create(s.ctx, CreateInput{
		UserID: customer.UserID,
		Items: []ItemInput{
			{ProductID: s.p1.ID, Quantity: 2},
			{ProductID: s.p2.ID, Quantity: 3},
		},
		ShippingAddress: address(),
	})
	s.Require().ErrorIs(err, domain.ErrInsufficientStock)
	s.Contains(err.Error(), "items[1]")
	s.Contains(err.Error(), s.p2.Name)
	s.True(domain.IsValidation(err))

	s.Equal(10, s.product(s.p1.ID).Stock)
	s.Equal(1, s.product(s.p2.ID).Stock)
	orders, _, err := s.svc.ListAll(s.ctx, "", domain.PageRequest{})
	s.Require().NoError(err)
	s.Empty(orders)
	s.Empty(s.store.AllPending())
}

func (s *OrderServiceSuite) TestCreate_ValidationErrors() {
	valid := func() CreateInput {
		return CreateInput{
			UserID:          customer.UserID,
			Items:           []ItemInput{{ProductID: s.p1.ID, Quantity: 1}},
			ShippingAddress: address(),
		}
	}
	cases := []struct {
		name   string
		mutate func(*CreateInput)
		want   error
	}{
		{"no items", func(in *CreateInput) { in.Items = nil }, domain.ErrItemsRequired},
		{"bad product id", func(in *CreateInput) { in.Items[0].ProductID = "p1" }, domain.ErrInvalidID},
		{"zero quantity", func(in *CreateInput) { in.Items[0].Quantity = 0 }, domain.ErrItemQuantityInvalid},
		{"missing phone", func(in *CreateInput) { in.ShippingAddress.Phone = " " }, domain.ErrShippingAddressIncomplete},
		{"unknown payment", func(in *CreateInput) { in.PaymentMethod = "crypto" }, domain.ErrPaymentMethodInvalid},
		{"negative discount", func(in *CreateInput) { in.Discount = -1 }, domain.ErrAmountNegative},
		{"negative total", func(in *CreateInput) { in.Discount = 500000 }, domain.ErrTotalNegative},
		{"unknown product", func(in *CreateInput) { in.Items[0].ProductID = domain.NewID() }, domain.ErrInvalidOrderItem},
		{"anonymous", func(in *CreateInput) { in.UserID = "" }, domain.ErrUnauthorized},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			in := valid()
			tc.mutate(&in)
			_, err := s.svc.Create(s.ctx, in)
			s.Require().ErrorIs(err, tc.want)
			s.Equal(10, s.product(s.p1.ID).Stock)
		})
	}
}

func (s *OrderServiceSuite) TestCreate_MissingAddressFieldIsNamed() {
	in := CreateInput{
		UserID:          customer.UserID,
		Items:           []ItemInput{{ProductID: s.p1.ID, Quantity: 1}},
		ShippingAddress: domain.ShippingAddress{FullName: "A", Phone: "1"},
	}
	_, err := s.svc.Create(s.ctx, in)
	s.Require().ErrorIs(err, domain.ErrShippingAddressIncomplete)
	s.Contains(err.Error(), "street")
}

func (s *OrderServiceSuite) TestCreate_InactiveProductRejected() {
	p := s.product(s.p1.ID)
	p.IsActive = false
	s.Require().NoError(s.store.Repos().Products.Update(s.ctx, p))

	_, err := s.svc.Create(s.ctx, CreateInput{
		UserID:          customer.UserID,
		Items:           []ItemInput{{ProductID: s.p1.ID, Quantity: 1}},
		ShippingAddress: address(),
	})
	s.Require().ErrorIs(err, domain.ErrInvalidOrderItem)
	s.Equal(10, s.product(s.p1.ID).Stock)
}

func (s *OrderServiceSuite) TestCreate_ClearsCartAndPublishesEvent() {
	repos := s.store.Repos()
	cart, err := repos.Carts.Get(s.ctx, customer.UserID)
	s.Require().NoError(err)
	cart.Add(domain.CartItem{ProductID: s.p1.ID, Quantity: 1, Price: s.p1.Price})
	s.Require().NoError(repos.Carts.Save(s.ctx, cart))

	order := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 1})

	cart, err = repos.Carts.Get(s.ctx, customer.UserID)
	s.Require().NoError(err)
	s.NotEmpty(cart.ID, "cart is cleared, not deleted")
	s.Empty(cart.Items)

	pending := s.store.AllPending()
	s.Require().Len(pending, 1)
	s.Equal(domain.EventOrderCreated, pending[0].EventType)
	s.Equal(order.ID, pending[0].AggregateID)
	s.Contains(string(pending[0].Payload), order.OrderCode)

	events, err := s.svc.Timeline(s.ctx, customer, order.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(domain.TimelineOrderCreated, events[0].Type)

	movements, err := s.svc.StockMovements(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Len(movements, 1)
	s.Equal(-1, movements[0].Delta)
	s.Equal(domain.StockReasonOrderPlaced, movements[0].Reason)
}

func (s *OrderServiceSuite) TestCreate_OnlinePaymentGetsInstruction() {
	res, err := s.svc.Create(s.ctx, CreateInput{
		UserID:          customer.UserID,
		Items:           []ItemInput{{ProductID: s.p1.ID, Quantity: 1}},
		ShippingAddress: address(),
		PaymentMethod:   domain.PaymentMethodVNPay,
	})
	s.Require().NoError(err)
	s.Require().NotNil(res.Payment)
	s.Equal(res.Order.OrderCode, res.Payment.Reference)
	s.Equal([]string{res.Order.OrderCode}, s.payment.Calls())
}

func (s *OrderServiceSuite) TestCreate_OrderCodeCollisionIsConflict() {
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(s.store,
		WithCodeGenerator(domain.NewOrderCodeGeneratorWith(
			func() time.Time { return fixed },
			func(int) int { return 0 },
		)),
	)
	in := CreateInput{
		UserID:          customer.UserID,
		Items:           []ItemInput{{ProductID: s.p1.ID, Quantity: 1}},
		ShippingAddress: address(),
	}

	first, err := svc.Create(s.ctx, in)
	s.Require().NoError(err)

	_, err = svc.Create(s.ctx, in)
	s.Require().ErrorIs(err, domain.ErrDuplicateOrderCode)
	s.Equal(9, s.product(s.p1.ID).Stock, "failed placement must not keep its decrement")

	stored, err := s.store.Repos().Orders.FindByCode(s.ctx, strings.ToLower(first.Order.OrderCode))
	s.Require().NoError(err)
	s.Equal(first.Order.ID, stored.ID, "existing order is never overwritten")
}

func (s *OrderServiceSuite) TestCancel_TwiceIsRejectedWithoutChanges() {
	order := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 4})

	_, err := s.svc.Cancel(s.ctx, customer, order.ID, "")
	s.Require().NoError(err)
	s.Equal(10, s.product(s.p1.ID).Stock)

	_, err = s.svc.Cancel(s.ctx, customer, order.ID, "again")
	s.Require().ErrorIs(err, domain.ErrOrderNotCancellable)
	s.Equal(10, s.product(s.p1.ID).Stock)

	stored, err := s.svc.Get(s.ctx, customer, order.ID)
	s.Require().NoError(err)
	s.Empty(stored.CancelReason)
}

func (s *OrderServiceSuite) TestCancel_Authorization() {
	order := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 1})

	_, err := s.svc.Cancel(s.ctx, stranger, order.ID, "")
	s.Require().ErrorIs(err, domain.ErrForbidden)

	cancelled, err := s.svc.Cancel(s.ctx, admin, order.ID, "out of stock at warehouse")
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCancelled, cancelled.Status)

	events, err := s.svc.Timeline(s.ctx, admin, order.ID)
	s.Require().NoError(err)
	s.Equal(domain.TimelineOrderCancelled, events[len(events)-1].Type)
}

func (s *OrderServiceSuite) TestCancel_AfterShippingDirectsToSupport() {
	order := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 1})
	_, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusShipping})
	s.Require().NoError(err)

	_, err = s.svc.Cancel(s.ctx, customer, order.ID, "")
	s.Require().ErrorIs(err, domain.ErrOrderNotCancellable)
	s.Contains(err.Error(), "contact support")
	s.Equal(9, s.product(s.p1.ID).Stock)
}

func (s *OrderServiceSuite) TestUpdateStatus_DeliveryIncrementsSoldOnce() {
	order := s.place(
		ItemInput{ProductID: s.p1.ID, Quantity: 2},
		ItemInput{ProductID: s.p2.ID, Quantity: 1},
	)

	confirmed, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusConfirmed})
	s.Require().NoError(err)
	s.NotNil(confirmed.ConfirmedAt)

	delivered, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusDelivered})
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPaid, delivered.PaymentStatus)
	s.NotNil(delivered.PaidAt)
	s.NotNil(delivered.DeliveredAt)
	s.Nil(delivered.ShippingAt, "skipped states get no timestamp")

	again, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusDelivered})
	s.Require().NoError(err)
	s.Equal(*delivered.DeliveredAt, *again.DeliveredAt)

	s.Equal(2, s.product(s.p1.ID).Sold)
	s.Equal(1, s.product(s.p2.ID).Sold)
	s.Equal(8, s.product(s.p1.ID).Stock)
}

func (s *OrderServiceSuite) TestUpdateStatus_TerminalStatesNeedOverride() {
	order := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 3})
	_, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusDelivered})
	s.Require().NoError(err)

	_, err = s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusShipping})
	s.Require().ErrorIs(err, domain.ErrInvalidTransition)

	_, err = s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusCancelled})
	s.Require().ErrorIs(err, domain.ErrInvalidTransition)
	s.Equal(7, s.product(s.p1.ID).Stock)

	cancelled, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusCancelled, Override: true})
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCancelled, cancelled.Status)
	s.Equal(10, s.product(s.p1.ID).Stock)

	redelivered, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusDelivered, Override: true})
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusDelivered, redelivered.Status)
	s.Equal(7, s.product(s.p1.ID).Stock, "leaving cancelled reserves stock again")
	s.Equal(3, s.product(s.p1.ID).Sold, "sold grows once per order")

	events, err := s.svc.Timeline(s.ctx, admin, order.ID)
	s.Require().NoError(err)
	s.Equal(domain.TimelineStatusOverridden, events[len(events)-1].Type)
}

func (s *OrderServiceSuite) TestUpdateStatus_ReactivationNeedsStock() {
	order := s.place(ItemInput{ProductID: s.p2.ID, Quantity: 1})
	_, err := s.svc.Cancel(s.ctx, customer, order.ID, "")
	s.Require().NoError(err)

	s.place(ItemInput{ProductID: s.p2.ID, Quantity: 1})
	s.Equal(0, s.product(s.p2.ID).Stock)

	_, err = s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusPending, Override: true})
	s.Require().ErrorIs(err, domain.ErrInsufficientStock)

	stored, err := s.svc.Get(s.ctx, admin, order.ID)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCancelled, stored.Status)
}

func (s *OrderServiceSuite) TestUpdateStatus_PaymentAndAdminNote() {
	order := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 1})
	note := "khách hẹn giao buổi chiều"

	updated, err := s.svc.UpdateStatus(s.ctx, UpdateInput{
		OrderID:       order.ID,
		PaymentStatus: domain.PaymentStatusPaid,
		AdminNote:     &note,
	})
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPending, updated.Status)
	s.Equal(domain.PaymentStatusPaid, updated.PaymentStatus)
	s.NotNil(updated.PaidAt)
	s.Equal(note, updated.AdminNote)
	s.Equal(order.Version+1, updated.Version)

	var types []string
	for _, msg := range s.store.AllPending() {
		types = append(types, msg.EventType)
	}
	s.Equal([]string{domain.EventOrderCreated, domain.EventOrderPaymentUpdated}, types)

	_, err = s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: "lost"})
	s.Require().ErrorIs(err, domain.ErrOrderStatusInvalid)

	_, err = s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: domain.NewID(), Status: domain.OrderStatusConfirmed})
	s.Require().ErrorIs(err, domain.ErrOrderNotFound)
}

func (s *OrderServiceSuite) TestUpdateStatus_RepaymentRestampsPaidAt() {
	order := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 1})

	paid, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, PaymentStatus: domain.PaymentStatusPaid})
	s.Require().NoError(err)
	s.Require().NotNil(paid.PaidAt)
	firstPaidAt := *paid.PaidAt

	refunded, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, PaymentStatus: domain.PaymentStatusRefunded})
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusRefunded, refunded.PaymentStatus)

	repaid, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, PaymentStatus: domain.PaymentStatusPaid})
	s.Require().NoError(err)
	s.Require().NotNil(repaid.PaidAt)
	s.True(repaid.PaidAt.After(firstPaidAt), "paid again must carry the new payment time")

	delivered, err := s.svc.UpdateStatus(s.ctx, UpdateInput{OrderID: order.ID, Status: domain.OrderStatusDelivered})
	s.Require().NoError(err)
	s.Equal(*repaid.PaidAt, *delivered.PaidAt, "delivery keeps an existing payment time")
}

func (s *OrderServiceSuite) TestGetAndList() {
	first := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 1})
	second := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 1})
	_, err := s.svc.Create(s.ctx, CreateInput{
		UserID:          stranger.UserID,
		Items:           []ItemInput{{ProductID: s.p1.ID, Quantity: 1}},
		ShippingAddress: address(),
	})
	s.Require().NoError(err)

	_, err = s.svc.Get(s.ctx, stranger, first.ID)
	s.Require().ErrorIs(err, domain.ErrForbidden)
	_, err = s.svc.Get(s.ctx, customer, domain.NewID())
	s.Require().ErrorIs(err, domain.ErrOrderNotFound)

	orders, info, err := s.svc.List(s.ctx, customer, "", domain.PageRequest{Page: 1, Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(second.ID, orders[0].ID, "newest first")
	s.Equal(domain.PageInfo{CurrentPage: 1, TotalPages: 2, Total: 2, Limit: 1}, info)

	all, info, err := s.svc.ListAll(s.ctx, domain.OrderStatusPending, domain.PageRequest{})
	s.Require().NoError(err)
	s.Len(all, 3)
	s.Equal(3, info.Total)
}

func (s *OrderServiceSuite) TestDelete_OnlyCancelled() {
	order := s.place(ItemInput{ProductID: s.p1.ID, Quantity: 1})

	s.Require().ErrorIs(s.svc.Delete(s.ctx, order.ID), domain.ErrOrderNotDeletable)

	_, err := s.svc.Cancel(s.ctx, customer, order.ID, "")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Delete(s.ctx, order.ID))

	_, err = s.svc.Get(s.ctx, admin, order.ID)
	s.Require().ErrorIs(err, domain.ErrOrderNotFound)
	pending := s.store.AllPending()
	s.Equal(domain.EventOrderDeleted, pending[len(pending)-1].EventType)
}

func TestCreate_ConcurrentOrdersNeverOversell(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	product := domain.Product{ID: domain.NewID(), Name: "Limited", Slug: "limited", Price: 50000, Stock: 10, IsActive: true}
	require.NoError(t, store.Repos().Products.Create(ctx, product))
	svc := NewService(store)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
		rejected atomic.Int32
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, CreateInput{
				UserID:          "buyer",
				Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
				ShippingAddress: address(),
			})
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := store.Repos().Products.Get(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, int32(10), accepted.Load())
	require.Equal(t, int32(15), rejected.Load())
	require.Equal(t, 0, stored.Stock)
}
