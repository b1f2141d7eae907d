package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReviewStatus — состояние модерации отзыва.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Valid проверяет статус модерации.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	default:
		return false
	}
}

// ParseReviewStatus разбирает статус модерации из внешнего ввода.
func ParseReviewStatus(raw string) (ReviewStatus, error) {
	status := ReviewStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrReviewStatusInvalid, raw)
	}
	return status, nil
}

// MaxReviewCommentLength ограничивает длину текста отзыва.
const MaxReviewCommentLength = 2000

// Review — отзыв покупателя о товаре. Пара (UserID, ProductID) уникальна.
type Review struct {
	ID                 string
	UserID             string
	ProductID          string
	Rating             int
	Comment            string
	Status             ReviewStatus
	IsVerifiedPurchase bool
	AdminReply         string
	RepliedAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate проверяет оценку и текст.
func (r Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrRatingInvalid
	}
	if len([]rune(r.Comment)) > MaxReviewCommentLength {
		return fmt.Errorf("%w: comment is longer than %d characters", ErrReviewTextInvalid, MaxReviewCommentLength)
	}
	return nil
}

// RatingStats — сумма и количество одобренных оценок товара.
type RatingStats struct {
	Sum   int64
	Count int
}
