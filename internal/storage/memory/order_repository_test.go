package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newOrder(id, userID, code string, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:            id,
		UserID:        userID,
		OrderCode:     code,
		Status:        domain.OrderStatusPending,
		PaymentMethod: domain.PaymentMethodCOD,
		PaymentStatus: domain.PaymentStatusUnpaid,
		Items: []domain.OrderItem{
			{ProductID: "65a1b2c3d4e5f60718293a01", Name: "Áo thun", Price: 100000, Quantity: 2},
		},
		Subtotal:    200000,
		ShippingFee: 30000,
		Total:       230000,
		ShippingAddress: domain.ShippingAddress{
			FullName: "Nguyen Van A",
			Phone:    "0901234567",
			Street:   "12 Le Loi",
			District: "Quan 1",
			Province: "Ho Chi Minh",
		},
		PendingAt: createdAt,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	order := newOrder("65a1b2c3d4e5f60718293a4b", "user-1", "ORD123456781234", time.Now().UTC())

	if err := repos.Orders.Create(ctx, order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repos.Orders.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.OrderCode != order.OrderCode || len(stored.Items) != 1 {
		t.Fatalf("unexpected stored order: %+v", stored)
	}

	stored.Items[0].Quantity = 99
	again, _ := repos.Orders.Get(ctx, order.ID)
	if again.Items[0].Quantity != 2 {
		t.Fatal("stored order must not share items with callers")
	}

	if _, err := repos.Orders.Get(ctx, "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_DuplicateCode(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	now := time.Now().UTC()

	if err := repos.Orders.Create(ctx, newOrder("65a1b2c3d4e5f60718293a01", "u", "ORD123456781234", now)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	err := repos.Orders.Create(ctx, newOrder("65a1b2c3d4e5f60718293a02", "u", "ord123456781234", now))
	if !errors.Is(err, domain.ErrDuplicateOrderCode) {
		t.Fatalf("expected ErrDuplicateOrderCode, got %v", err)
	}

	exists, err := repos.Orders.CodeExists(ctx, "Ord123456781234")
	if err != nil || !exists {
		t.Fatalf("expected code to exist, got %v, %v", exists, err)
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	order := newOrder("65a1b2c3d4e5f60718293a4b", "u", "ORD123456781234", time.Now().UTC())
	if err := repos.Orders.Create(ctx, order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, _ := repos.Orders.Get(ctx, order.ID)
	stored.Status = domain.OrderStatusConfirmed
	if err := repos.Orders.Save(ctx, stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	updated, _ := repos.Orders.Get(ctx, order.ID)
	if updated.Version != 1 || updated.Status != domain.OrderStatusConfirmed {
		t.Fatalf("unexpected order after save: version=%d status=%s", updated.Version, updated.Status)
	}

	// stored всё ещё с версией 0.
	if err := repos.Orders.Save(ctx, stored); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestOrderRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"65a1b2c3d4e5f60718293a01", "65a1b2c3d4e5f60718293a02", "65a1b2c3d4e5f60718293a03"} {
		user := "user-1"
		if i == 1 {
			user = "user-2"
		}
		code := "ORD1234567" + string(rune('0'+i)) + "1234"
		if err := repos.Orders.Create(ctx, newOrder(id, user, code, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	mine, total, err := repos.Orders.List(ctx, domain.OrderFilter{UserID: "user-1", Page: domain.NewPageRequest(1, 10)})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(mine) != 2 {
		t.Fatalf("expected 2 orders for user-1, got total=%d len=%d", total, len(mine))
	}
	if mine[0].ID != "65a1b2c3d4e5f60718293a03" {
		t.Fatalf("expected newest first, got %s", mine[0].ID)
	}

	all, total, err := repos.Orders.List(ctx, domain.OrderFilter{Page: domain.NewPageRequest(2, 2)})
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if total != 3 || len(all) != 1 || all[0].ID != "65a1b2c3d4e5f60718293a01" {
		t.Fatalf("unexpected second page: total=%d %+v", total, all)
	}
}

func TestOrderRepository_LookupHelpers(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	older := newOrder("65a1b2c3d4e5f6071829abcd", "u1", "ORD111111111111", base)
	newer := newOrder("75a1b2c3d4e5f6071829abcd", "u2", "ORD222222222222", base.Add(time.Hour))
	newer.ShippingAddress.FullName = "Tran Thi B"
	for _, o := range []domain.Order{older, newer} {
		if err := repos.Orders.Create(ctx, o); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	bySuffix, err := repos.Orders.FindByIDSuffix(ctx, "29ABCD")
	if err != nil || len(bySuffix) != 2 || bySuffix[0].ID != newer.ID {
		t.Fatalf("unexpected suffix match: %v %+v", err, bySuffix)
	}

	byCode, err := repos.Orders.FindByCode(ctx, "ord111111111111")
	if err != nil || byCode.ID != older.ID {
		t.Fatalf("unexpected code match: %v %+v", err, byCode)
	}

	found, err := repos.Orders.SearchShipping(ctx, domain.ShippingSearch{Text: "tran thi", Limit: 10})
	if err != nil || len(found) != 1 || found[0].ID != newer.ID {
		t.Fatalf("unexpected shipping search: %v %+v", err, found)
	}
}

func TestOrderRepository_SearchShippingFiltersPhoneBeforeLimit(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	match := newOrder("65a1b2c3d4e5f60718294000", "u1", "ORD100000000000", base)
	match.ShippingAddress.Phone = "0903 333 333"
	if err := repos.Orders.Create(ctx, match); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 1; i <= 5; i++ {
		o := newOrder(fmt.Sprintf("65a1b2c3d4e5f6071829400%d", i), "u1", fmt.Sprintf("ORD10000000000%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := repos.Orders.Create(ctx, o); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	found, err := repos.Orders.SearchShipping(ctx, domain.ShippingSearch{Text: "le loi", Limit: 2})
	if err != nil || len(found) != 2 || found[0].ID != "65a1b2c3d4e5f60718294005" {
		t.Fatalf("unexpected unfiltered search: %v %+v", err, found)
	}

	found, err = repos.Orders.SearchShipping(ctx, domain.ShippingSearch{Text: "le loi", Phone: "090333", Limit: 2})
	if err != nil || len(found) != 1 || found[0].ID != match.ID {
		t.Fatalf("expected phone-matching order despite limit: %v %+v", err, found)
	}
}

func TestOrderRepository_HasDeliveredProduct(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	order := newOrder("65a1b2c3d4e5f60718293a4b", "u1", "ORD123456781234", time.Now().UTC())
	if err := repos.Orders.Create(ctx, order); err != nil {
		t.Fatalf("create: %v", err)
	}

	productID := order.Items[0].ProductID
	if ok, _ := repos.Orders.HasDeliveredProduct(ctx, "u1", productID); ok {
		t.Fatal("pending order must not count as delivered")
	}

	stored, _ := repos.Orders.Get(ctx, order.ID)
	stored.Status = domain.OrderStatusDelivered
	if err := repos.Orders.Save(ctx, stored); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ok, _ := repos.Orders.HasDeliveredProduct(ctx, "u1", productID); !ok {
		t.Fatal("expected delivered product")
	}
	if ok, _ := repos.Orders.HasDeliveredProduct(ctx, "u2", productID); ok {
		t.Fatal("other user must not see the delivery")
	}
}
