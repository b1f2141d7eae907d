package domain

import (
	"errors"
	"testing"
)

func TestPlanTransition_Table(t *testing.T) {
	tests := []struct {
		name        string
		from, to    OrderStatus
		override    bool
		wantErr     error
		wantEffects []TransitionEffect
	}{
		{name: "confirm", from: OrderStatusPending, to: OrderStatusConfirmed},
		{name: "ship", from: OrderStatusConfirmed, to: OrderStatusShipping},
		{name: "deliver", from: OrderStatusShipping, to: OrderStatusDelivered, wantEffects: []TransitionEffect{EffectIncrementSold, EffectMarkPaid}},
		{name: "skip to delivered", from: OrderStatusPending, to: OrderStatusDelivered, wantEffects: []TransitionEffect{EffectIncrementSold, EffectMarkPaid}},
		{name: "cancel pending", from: OrderStatusPending, to: OrderStatusCancelled, wantEffects: []TransitionEffect{EffectRestock}},
		{name: "cancel confirmed", from: OrderStatusConfirmed, to: OrderStatusCancelled, wantEffects: []TransitionEffect{EffectRestock}},
		{name: "cancel shipping", from: OrderStatusShipping, to: OrderStatusCancelled, wantErr: ErrInvalidTransition},
		{name: "backwards", from: OrderStatusShipping, to: OrderStatusPending, wantErr: ErrInvalidTransition},
		{name: "leave delivered", from: OrderStatusDelivered, to: OrderStatusShipping, wantErr: ErrInvalidTransition},
		{name: "leave cancelled", from: OrderStatusCancelled, to: OrderStatusPending, wantErr: ErrInvalidTransition},
		{name: "unknown target", from: OrderStatusPending, to: OrderStatus("lost"), wantErr: ErrOrderStatusInvalid},
		{name: "override reactivates cancelled", from: OrderStatusCancelled, to: OrderStatusConfirmed, override: true, wantEffects: []TransitionEffect{EffectReserveStock}},
		{name: "override cancel shipping", from: OrderStatusShipping, to: OrderStatusCancelled, override: true, wantEffects: []TransitionEffect{EffectRestock}},
		{name: "override cancelled to delivered", from: OrderStatusCancelled, to: OrderStatusDelivered, override: true, wantEffects: []TransitionEffect{EffectReserveStock, EffectIncrementSold, EffectMarkPaid}},
		{name: "override backwards", from: OrderStatusShipping, to: OrderStatusPending, override: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := PlanTransition(tt.from, tt.to, tt.override)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tr.Effects) != len(tt.wantEffects) {
				t.Fatalf("effects %v, want %v", tr.Effects, tt.wantEffects)
			}
			for i := range tt.wantEffects {
				if tr.Effects[i] != tt.wantEffects[i] {
					t.Fatalf("effects %v, want %v", tr.Effects, tt.wantEffects)
				}
			}
		})
	}
}

func TestPlanTransition_SameStatusIsNoop(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusDelivered, OrderStatusCancelled} {
		tr, err := PlanTransition(status, status, false)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", status, err)
		}
		if !tr.Noop() || len(tr.Effects) != 0 {
			t.Fatalf("%s: expected noop without effects, got %+v", status, tr)
		}
	}
}

func TestPlanTransition_OverrideFlagOnlyOutsideTable(t *testing.T) {
	tr, err := PlanTransition(OrderStatusPending, OrderStatusConfirmed, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Override {
		t.Fatal("regular transition must not be marked as override")
	}
}

func TestCanCustomerCancel(t *testing.T) {
	allowed := map[OrderStatus]bool{
		OrderStatusPending:   true,
		OrderStatusConfirmed: true,
		OrderStatusShipping:  false,
		OrderStatusDelivered: false,
		OrderStatusCancelled: false,
	}
	for status, want := range allowed {
		if got := CanCustomerCancel(status); got != want {
			t.Errorf("CanCustomerCancel(%s)=%v, want %v", status, got, want)
		}
	}
}
