package domain

import "fmt"

// TransitionEffect — побочный эффект смены статуса заказа.
type TransitionEffect string

const (
	// EffectRestock возвращает количество каждой позиции на склад.
	EffectRestock TransitionEffect = "restock"
	// EffectReserveStock повторно списывает остатки при выходе из cancelled.
	EffectReserveStock TransitionEffect = "reserve_stock"
	// EffectIncrementSold увеличивает счётчик продаж товаров.
	EffectIncrementSold TransitionEffect = "increment_sold"
	// EffectMarkPaid переводит оплату в paid.
	EffectMarkPaid TransitionEffect = "mark_paid"
)

type transitionKey struct {
	from OrderStatus
	to   OrderStatus
}

// orderTransitions — таблица штатных переходов.
// Движение только вперёд по цепочке pending -> confirmed -> shipping -> delivered,
// отмена только из pending и confirmed.
var orderTransitions = map[transitionKey][]TransitionEffect{
	{OrderStatusPending, OrderStatusConfirmed}:   nil,
	{OrderStatusPending, OrderStatusShipping}:    nil,
	{OrderStatusPending, OrderStatusDelivered}:   {EffectIncrementSold, EffectMarkPaid},
	{OrderStatusPending, OrderStatusCancelled}:   {EffectRestock},
	{OrderStatusConfirmed, OrderStatusShipping}:  nil,
	{OrderStatusConfirmed, OrderStatusDelivered}: {EffectIncrementSold, EffectMarkPaid},
	{OrderStatusConfirmed, OrderStatusCancelled}: {EffectRestock},
	{OrderStatusShipping, OrderStatusDelivered}:  {EffectIncrementSold, EffectMarkPaid},
}

// Transition — спланированный переход статуса со списком эффектов.
type Transition struct {
	From     OrderStatus
	To       OrderStatus
	Effects  []TransitionEffect
	Override bool
}

// Noop сообщает, что статус не меняется.
func (t Transition) Noop() bool {
	return t.From == t.To
}

// Has проверяет наличие эффекта в переходе.
func (t Transition) Has(effect TransitionEffect) bool {
	for _, e := range t.Effects {
		if e == effect {
			return true
		}
	}
	return false
}

// PlanTransition находит переход в таблице.
// Переход вне таблицы разрешён только с override: тогда эффекты
// выводятся из входа в целевой статус и выхода из cancelled.
func PlanTransition(from, to OrderStatus, override bool) (Transition, error) {
	if !from.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrOrderStatusInvalid, from)
	}
	if !to.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrOrderStatusInvalid, to)
	}
	if from == to {
		return Transition{From: from, To: to}, nil
	}

	if effects, ok := orderTransitions[transitionKey{from, to}]; ok {
		return Transition{From: from, To: to, Effects: append([]TransitionEffect(nil), effects...)}, nil
	}
	if !override {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	var effects []TransitionEffect
	if from == OrderStatusCancelled {
		effects = append(effects, EffectReserveStock)
	}
	switch to {
	case OrderStatusCancelled:
		effects = append(effects, EffectRestock)
	case OrderStatusDelivered:
		effects = append(effects, EffectIncrementSold, EffectMarkPaid)
	}

	return Transition{From: from, To: to, Effects: effects, Override: true}, nil
}

// CanCustomerCancel сообщает, может ли покупатель сам отменить заказ.
func CanCustomerCancel(status OrderStatus) bool {
	return status == OrderStatusPending || status == OrderStatusConfirmed
}
