package memory

import (
	"context"
	"slices"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// stockMovementRepository — журнал складских движений в памяти.
type stockMovementRepository struct {
	s *session
}

func (r *stockMovementRepository) Append(_ context.Context, movements ...domain.StockMovement) error {
	for _, m := range movements {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return r.s.write(func(st *state) error {
		now := time.Now().UTC()
		// Clip, чтобы append не писал в общий с копией транзакции массив.
		next := slices.Clip(st.movements)
		for _, m := range movements {
			if m.ID == "" {
				m.ID = domain.NewID()
			}
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}
			next = append(next, m)
		}
		st.movements = next
		return nil
	})
}

func (r *stockMovementRepository) ListByOrder(_ context.Context, orderID string) ([]domain.StockMovement, error) {
	var out []domain.StockMovement
	err := r.s.read(func(st *state) error {
		out = make([]domain.StockMovement, 0)
		for _, m := range st.movements {
			if m.OrderID == orderID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

// ListByProduct возвращает последние движения товара, новые первыми.
func (r *stockMovementRepository) ListByProduct(_ context.Context, productID string, limit int) ([]domain.StockMovement, error) {
	var out []domain.StockMovement
	err := r.s.read(func(st *state) error {
		out = make([]domain.StockMovement, 0)
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.ProductID != productID {
				continue
			}
			out = append(out, m)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	return out, err
}

var _ domain.StockMovementRepository = (*stockMovementRepository)(nil)
