package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// timelineRepository хранит историю заказов в памяти.
type timelineRepository struct {
	s *session
}

// Append добавляет событие, сохраняя хронологический порядок.
func (r *timelineRepository) Append(_ context.Context, event domain.TimelineEvent) error {
	return r.s.write(func(st *state) error {
		events := append(slices.Clip(st.timeline[event.OrderID]), event)
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Occurred.Before(events[j].Occurred)
		})
		st.timeline[event.OrderID] = events
		return nil
	})
}

// List возвращает копию событий заказа.
func (r *timelineRepository) List(_ context.Context, orderID string) ([]domain.TimelineEvent, error) {
	var out []domain.TimelineEvent
	err := r.s.read(func(st *state) error {
		out = slices.Clone(st.timeline[orderID])
		if out == nil {
			out = []domain.TimelineEvent{}
		}
		return nil
	})
	return out, err
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)
