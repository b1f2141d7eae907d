package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepository — in-memory реализация OrderRepository.
type orderRepository struct {
	s *session
}

// Create сохраняет новый заказ, если ID и код ещё не заняты.
func (r *orderRepository) Create(_ context.Context, order domain.Order) error {
	return r.s.write(func(st *state) error {
		if _, exists := st.orders[order.ID]; exists {
			return domain.ErrOrderVersionConflict
		}
		for _, existing := range st.orders {
			if strings.EqualFold(existing.OrderCode, order.OrderCode) {
				return domain.ErrDuplicateOrderCode
			}
		}
		// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
		st.orders[order.ID] = order.Clone()
		return nil
	})
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepository) Get(_ context.Context, id string) (domain.Order, error) {
	var out domain.Order
	err := r.s.read(func(st *state) error {
		order, ok := st.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		out = order.Clone()
		return nil
	})
	return out, err
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
func (r *orderRepository) Save(_ context.Context, order domain.Order) error {
	return r.s.write(func(st *state) error {
		current, ok := st.orders[order.ID]
		if !ok {
			return domain.ErrOrderNotFound
		}
		if current.Version != order.Version {
			return domain.ErrOrderVersionConflict
		}
		order.Version++
		st.orders[order.ID] = order.Clone()
		return nil
	})
}

func (r *orderRepository) Delete(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.orders[id]; !ok {
			return domain.ErrOrderNotFound
		}
		delete(st.orders, id)
		delete(st.timeline, id)
		return nil
	})
}

// List возвращает заказы пользователя (или всех при пустом UserID), новые первыми.
func (r *orderRepository) List(_ context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	var (
		page  []domain.Order
		total int
	)
	err := r.s.read(func(st *state) error {
		result := r.collect(st, func(o domain.Order) bool {
			if filter.UserID != "" && o.UserID != filter.UserID {
				return false
			}
			return filter.Status == "" || o.Status == filter.Status
		})
		total = len(result)
		page = domain.Paginate(result, filter.Page)
		return nil
	})
	return page, total, err
}

func (r *orderRepository) CodeExists(_ context.Context, code string) (bool, error) {
	exists := false
	err := r.s.read(func(st *state) error {
		for _, o := range st.orders {
			if strings.EqualFold(o.OrderCode, code) {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

func (r *orderRepository) FindByCode(_ context.Context, code string) (domain.Order, error) {
	var out domain.Order
	err := r.s.read(func(st *state) error {
		for _, o := range st.orders {
			if strings.EqualFold(o.OrderCode, code) {
				out = o.Clone()
				return nil
			}
		}
		return domain.ErrOrderNotFound
	})
	return out, err
}

func (r *orderRepository) FindByIDSuffix(_ context.Context, suffix string) ([]domain.Order, error) {
	suffix = strings.ToLower(suffix)
	var out []domain.Order
	err := r.s.read(func(st *state) error {
		out = r.collect(st, func(o domain.Order) bool {
			return strings.HasSuffix(strings.ToLower(o.ID), suffix)
		})
		return nil
	})
	return out, err
}

func (r *orderRepository) SearchShipping(_ context.Context, q domain.ShippingSearch) ([]domain.Order, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	var out []domain.Order
	err := r.s.read(func(st *state) error {
		out = r.collect(st, func(o domain.Order) bool {
			a := o.ShippingAddress
			if !a.MatchesPhone(q.Phone) {
				return false
			}
			for _, field := range []string{a.FullName, a.Phone, a.Street, a.Ward, a.District, a.Province, o.OrderCode} {
				if strings.Contains(strings.ToLower(field), needle) {
					return true
				}
			}
			return false
		})
		if q.Limit > 0 && len(out) > q.Limit {
			out = out[:q.Limit]
		}
		return nil
	})
	return out, err
}

func (r *orderRepository) HasDeliveredProduct(_ context.Context, userID, productID string) (bool, error) {
	found := false
	err := r.s.read(func(st *state) error {
		for _, o := range st.orders {
			if o.UserID != userID || o.Status != domain.OrderStatusDelivered {
				continue
			}
			for _, item := range o.Items {
				if item.ProductID == productID {
					found = true
					return nil
				}
			}
		}
		return nil
	})
	return found, err
}

func (r *orderRepository) collect(st *state, keep func(domain.Order) bool) []domain.Order {
	result := make([]domain.Order, 0)
	for _, order := range st.orders {
		if keep(order) {
			result = append(result, order.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

var _ domain.OrderRepository = (*orderRepository)(nil)
