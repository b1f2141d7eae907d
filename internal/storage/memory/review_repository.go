package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type reviewRepository struct {
	s *session
}

func (r *reviewRepository) Create(_ context.Context, review domain.Review) error {
	return r.s.write(func(st *state) error {
		for _, existing := range st.reviews {
			if existing.UserID == review.UserID && existing.ProductID == review.ProductID {
				return domain.ErrReviewExists
			}
		}
		st.reviews[review.ID] = review
		return nil
	})
}

func (r *reviewRepository) Get(_ context.Context, id string) (domain.Review, error) {
	var out domain.Review
	err := r.s.read(func(st *state) error {
		review, ok := st.reviews[id]
		if !ok {
			return domain.ErrReviewNotFound
		}
		out = review
		return nil
	})
	return out, err
}

func (r *reviewRepository) Update(_ context.Context, review domain.Review) error {
	return r.s.write(func(st *state) error {
		current, ok := st.reviews[review.ID]
		if !ok {
			return domain.ErrReviewNotFound
		}
		// Автор и товар отзыва неизменны.
		review.UserID = current.UserID
		review.ProductID = current.ProductID
		review.CreatedAt = current.CreatedAt
		st.reviews[review.ID] = review
		return nil
	})
}

func (r *reviewRepository) Delete(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.reviews[id]; !ok {
			return domain.ErrReviewNotFound
		}
		delete(st.reviews, id)
		return nil
	})
}

func (r *reviewRepository) List(_ context.Context, filter domain.ReviewFilter) ([]domain.Review, int, error) {
	var (
		page  []domain.Review
		total int
	)
	err := r.s.read(func(st *state) error {
		matched := make([]domain.Review, 0)
		for _, review := range st.reviews {
			if filter.ProductID != "" && review.ProductID != filter.ProductID {
				continue
			}
			if filter.UserID != "" && review.UserID != filter.UserID {
				continue
			}
			if filter.Status != "" && review.Status != filter.Status {
				continue
			}
			matched = append(matched, review)
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].ID > matched[j].ID
		})
		total = len(matched)
		page = domain.Paginate(matched, filter.Page)
		return nil
	})
	return page, total, err
}

func (r *reviewRepository) ApprovedStats(_ context.Context, productID string) (domain.RatingStats, error) {
	var stats domain.RatingStats
	err := r.s.read(func(st *state) error {
		for _, review := range st.reviews {
			if review.ProductID == productID && review.Status == domain.ReviewStatusApproved {
				stats.Sum += int64(review.Rating)
				stats.Count++
			}
		}
		return nil
	})
	return stats, err
}

var _ domain.ReviewRepository = (*reviewRepository)(nil)
