package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DefaultTTL — сколько живёт ключ Idempotency-Key.
const DefaultTTL = 24 * time.Hour

// Replay — сохранённый ответ, который нужно вернуть повторному запросу.
type Replay struct {
	HTTPStatus int
	Body       []byte
}

// Guard защищает оформление заказа от повторной отправки с тем же ключом.
// Первый запрос создаёт запись processing, ответ сохраняется через Complete.
// Повтор с тем же телом получает сохранённый ответ, с другим телом — конфликт.
type Guard struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	logger *log.Entry
	now    func() time.Time
}

// NewGuard создаёт Guard. ttl <= 0 означает DefaultTTL.
func NewGuard(repo domain.IdempotencyRepository, ttl time.Duration, logger *log.Entry) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.WithField("component", "idempotency-guard")
	}
	return &Guard{repo: repo, ttl: ttl, logger: logger, now: time.Now}
}

// HashRequest считает отпечаток запроса: метод, маршрут, пользователь и тело.
func HashRequest(method, route, userID string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{method, route, userID} {
		h.Write([]byte(part))
		h.Write([]byte{':'})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Begin регистрирует ключ. nil Replay без ошибки означает, что запрос надо выполнить.
func (g *Guard) Begin(ctx context.Context, key, requestHash string) (*Replay, error) {
	key = strings.TrimSpace(key)
	record, err := g.repo.CreateProcessing(ctx, key, requestHash, g.now().UTC().Add(g.ttl))
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return nil, err
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
	default:
		return nil, fmt.Errorf("create idempotency record: %w", err)
	}

	if record.Replayable() {
		g.logger.WithFields(log.Fields{
			"idempotency_key": key,
			"status":          record.Status,
			"http_status":     record.HTTPStatus,
		}).Info("replaying stored response")
		return &Replay{HTTPStatus: record.HTTPStatus, Body: record.ResponseBody}, nil
	}

	switch {
	case record.Status == domain.IdempotencyStatusProcessing:
		return nil, domain.ErrIdempotencyInProgress
	case record.Status.Finished():
		return nil, fmt.Errorf("idempotency record %q has no stored response", key)
	default:
		return nil, fmt.Errorf("unknown idempotency record status %q", record.Status)
	}
}

// Complete сохраняет ответ: статусы < 400 как done, остальные как failed.
// Ошибка сохранения только логируется, ответ клиенту уже сформирован.
func (g *Guard) Complete(ctx context.Context, key string, httpStatus int, body []byte) {
	mark := g.repo.MarkDone
	if httpStatus >= http.StatusBadRequest {
		mark = g.repo.MarkFailed
	}
	if err := mark(ctx, strings.TrimSpace(key), body, httpStatus); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
}
