// Package review ведёт отзывы покупателей и агрегат рейтинга товара.
// Рейтинг товара пересчитывается полностью по одобренным отзывам при каждом
// изменении, которое затрагивает одобренный отзыв.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Service — отзывы и модерация.
type Service struct {
	uow     domain.UnitOfWork
	metrics *metrics.Metrics
	logger  *log.Entry
	now     func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService создаёт сервис отзывов.
func NewService(uow domain.UnitOfWork, opts ...Option) *Service {
	s := &Service{
		uow:    uow,
		logger: log.WithField("component", "review-service"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput — новый отзыв.
type CreateInput struct {
	Rating  int
	Comment string
}

// UpdateInput — правка своего отзыва. Nil-поля не меняются.
type UpdateInput struct {
	Rating  *int
	Comment *string
}

// Create сохраняет отзыв в статусе pending.
// Покупка считается подтверждённой, если у пользователя есть доставленный заказ с этим товаром.
func (s *Service) Create(ctx context.Context, actor domain.Principal, productID string, in CreateInput) (domain.Review, error) {
	if actor.UserID == "" {
		return domain.Review{}, domain.ErrUnauthorized
	}
	id, err := domain.NormalizeID(productID)
	if err != nil {
		return domain.Review{}, err
	}

	now := s.now().UTC()
	review := domain.Review{
		ID:        domain.NewID(),
		UserID:    actor.UserID,
		ProductID: id,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		Status:    domain.ReviewStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := review.Validate(); err != nil {
		return domain.Review{}, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Products.Get(ctx, id); err != nil {
			return err
		}
		verified, err := repos.Orders.HasDeliveredProduct(ctx, actor.UserID, id)
		if err != nil {
			return fmt.Errorf("check purchase: %w", err)
		}
		review.IsVerifiedPurchase = verified
		return repos.Reviews.Create(ctx, review)
	})
	if err != nil {
		return domain.Review{}, err
	}

	s.logger.WithFields(log.Fields{
		"review_id":  review.ID,
		"product_id": id,
		"verified":   review.IsVerifiedPurchase,
	}).Info("review submitted")
	return review, nil
}

// Update меняет оценку или текст своего отзыва и возвращает его на модерацию.
func (s *Service) Update(ctx context.Context, actor domain.Principal, reviewID string, in UpdateInput) (domain.Review, error) {
	id, err := domain.NormalizeID(reviewID)
	if err != nil {
		return domain.Review{}, err
	}

	var updated domain.Review
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		review, err := repos.Reviews.Get(ctx, id)
		if err != nil {
			return err
		}
		if review.UserID != actor.UserID {
			return domain.ErrForbidden
		}
		wasApproved := review.Status == domain.ReviewStatusApproved

		if in.Rating != nil {
			review.Rating = *in.Rating
		}
		if in.Comment != nil {
			review.Comment = strings.TrimSpace(*in.Comment)
		}
		if err := review.Validate(); err != nil {
			return err
		}
		review.Status = domain.ReviewStatusPending
		review.UpdatedAt = s.now().UTC()
		if err := repos.Reviews.Update(ctx, review); err != nil {
			return err
		}
		if wasApproved {
			if err := s.recompute(ctx, repos, review.ProductID); err != nil {
				return err
			}
		}
		updated = review
		return nil
	})
	return updated, err
}

// Moderate одобряет или отклоняет отзыв.
// Рейтинг пересчитывается, только если одобренным был старый или стал новый статус.
func (s *Service) Moderate(ctx context.Context, reviewID string, status domain.ReviewStatus) (domain.Review, error) {
	id, err := domain.NormalizeID(reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	if status != domain.ReviewStatusApproved && status != domain.ReviewStatusRejected {
		return domain.Review{}, fmt.Errorf("%w: %q", domain.ErrReviewStatusInvalid, status)
	}

	var moderated domain.Review
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		review, err := repos.Reviews.Get(ctx, id)
		if err != nil {
			return err
		}
		previous := review.Status
		review.Status = status
		review.UpdatedAt = s.now().UTC()
		if err := repos.Reviews.Update(ctx, review); err != nil {
			return err
		}
		if previous == domain.ReviewStatusApproved || status == domain.ReviewStatusApproved {
			if err := s.recompute(ctx, repos, review.ProductID); err != nil {
				return err
			}
		}
		if err := s.enqueueModerated(ctx, repos, review, previous); err != nil {
			return err
		}
		moderated = review
		return nil
	})
	if err != nil {
		return domain.Review{}, err
	}

	s.metrics.RecordReviewModerated(string(status))
	s.metrics.RecordOutboxEvent()
	return moderated, nil
}

// Reply сохраняет ответ администратора.
func (s *Service) Reply(ctx context.Context, reviewID, reply string) (domain.Review, error) {
	id, err := domain.NormalizeID(reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return domain.Review{}, fmt.Errorf("%w: reply is empty", domain.ErrReviewTextInvalid)
	}

	var replied domain.Review
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		review, err := repos.Reviews.Get(ctx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		review.AdminReply = reply
		review.RepliedAt = &now
		review.UpdatedAt = now
		if err := repos.Reviews.Update(ctx, review); err != nil {
			return err
		}
		replied = review
		return nil
	})
	return replied, err
}

// Delete удаляет отзыв автора или по решению администратора.
func (s *Service) Delete(ctx context.Context, actor domain.Principal, reviewID string) error {
	id, err := domain.NormalizeID(reviewID)
	if err != nil {
		return err
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		review, err := repos.Reviews.Get(ctx, id)
		if err != nil {
			return err
		}
		if review.UserID != actor.UserID && !actor.IsAdmin() {
			return domain.ErrForbidden
		}
		if err := repos.Reviews.Delete(ctx, id); err != nil {
			return err
		}
		if review.Status != domain.ReviewStatusApproved {
			return nil
		}
		return s.recompute(ctx, repos, review.ProductID)
	})
}

// ListForProduct возвращает одобренные отзывы товара, новые первыми.
func (s *Service) ListForProduct(ctx context.Context, productID string, page domain.PageRequest) ([]domain.Review, domain.PageInfo, error) {
	id, err := domain.NormalizeID(productID)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return s.list(ctx, domain.ReviewFilter{ProductID: id, Status: domain.ReviewStatusApproved, Page: page})
}

// ListAll — выборка для модерации; пустой статус означает все отзывы.
func (s *Service) ListAll(ctx context.Context, status domain.ReviewStatus, page domain.PageRequest) ([]domain.Review, domain.PageInfo, error) {
	if status != "" && !status.Valid() {
		return nil, domain.PageInfo{}, fmt.Errorf("%w: %q", domain.ErrReviewStatusInvalid, status)
	}
	return s.list(ctx, domain.ReviewFilter{Status: status, Page: page})
}

func (s *Service) list(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, domain.PageInfo, error) {
	filter.Page = domain.NewPageRequest(filter.Page.Page, filter.Page.Limit)
	reviews, total, err := s.uow.Repos().Reviews.List(ctx, filter)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return reviews, filter.Page.Info(total), nil
}

// Recompute пересчитывает рейтинг товара вне модерации, например после ручной правки данных.
func (s *Service) Recompute(ctx context.Context, productID string) error {
	id, err := domain.NormalizeID(productID)
	if err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		return s.recompute(ctx, repos, id)
	})
}

// recompute полностью перезаписывает rating и reviews товара.
func (s *Service) recompute(ctx context.Context, repos domain.Repositories, productID string) error {
	stats, err := repos.Reviews.ApprovedStats(ctx, productID)
	if err != nil {
		return fmt.Errorf("approved stats: %w", err)
	}
	rating := AverageRating(stats)
	if err := repos.Products.SetRating(ctx, productID, rating, stats.Count); err != nil {
		if domain.IsNotFound(err) {
			s.logger.WithField("product_id", productID).Warn("skip rating update of deleted product")
			return nil
		}
		return fmt.Errorf("set rating: %w", err)
	}
	return nil
}

// AverageRating возвращает среднюю оценку, округлённую до одного знака. Без оценок — 0.
func AverageRating(stats domain.RatingStats) float64 {
	if stats.Count == 0 {
		return 0
	}
	return decimal.NewFromInt(stats.Sum).
		DivRound(decimal.NewFromInt(int64(stats.Count)), 1).
		InexactFloat64()
}

type moderatedEvent struct {
	ReviewID   string    `json:"reviewId"`
	ProductID  string    `json:"productId"`
	UserID     string    `json:"userId"`
	Rating     int       `json:"rating"`
	Status     string    `json:"status"`
	From       string    `json:"from"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (s *Service) enqueueModerated(ctx context.Context, repos domain.Repositories, review domain.Review, from domain.ReviewStatus) error {
	payload, err := json.Marshal(moderatedEvent{
		ReviewID:   review.ID,
		ProductID:  review.ProductID,
		UserID:     review.UserID,
		Rating:     review.Rating,
		Status:     string(review.Status),
		From:       string(from),
		OccurredAt: review.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal review event: %w", err)
	}
	if _, err := repos.Outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.AggregateReview,
		AggregateID:   review.ID,
		EventType:     domain.EventReviewModerated,
		Payload:       payload,
	}); err != nil {
		return fmt.Errorf("enqueue review event: %w", err)
	}
	return nil
}
