package idempotency

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	defaultCleanupInterval   = 10 * time.Minute
	defaultCleanupBatchSize  = 500
	defaultCleanupMaxBatches = 20
)

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupWorker)

func WithLogger(logger *log.Entry) CleanupOption {
	return func(w *CleanupWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) CleanupOption {
	return func(w *CleanupWorker) { w.metrics = m }
}

func WithInterval(interval time.Duration) CleanupOption {
	return func(w *CleanupWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithBatchSize(batchSize int) CleanupOption {
	return func(w *CleanupWorker) {
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// WithMaxBatches ограничивает число порций за один проход.
func WithMaxBatches(n int) CleanupOption {
	return func(w *CleanupWorker) {
		if n > 0 {
			w.maxBatches = n
		}
	}
}

func WithClock(now func() time.Time) CleanupOption {
	return func(w *CleanupWorker) {
		if now != nil {
			w.now = now
		}
	}
}

// CleanupResult — итог одного прохода очистки.
type CleanupResult struct {
	Deleted int
	Batches int
	// Truncated: проход упёрся в лимит порций, часть просроченных ключей осталась до следующего тика.
	Truncated bool
}

// CleanupWorker удаляет ключи Idempotency-Key, у которых истёк TTL.
// Проход идёт порциями batchSize, чтобы не держать долгую блокировку хранилища.
type CleanupWorker struct {
	repo       domain.IdempotencyRepository
	logger     *log.Entry
	metrics    *metrics.Metrics
	interval   time.Duration
	batchSize  int
	maxBatches int
	now        func() time.Time
}

func NewCleanupWorker(repo domain.IdempotencyRepository, opts ...CleanupOption) *CleanupWorker {
	w := &CleanupWorker{
		repo:       repo,
		logger:     log.WithField("component", "idempotency-cleanup-worker"),
		interval:   defaultCleanupInterval,
		batchSize:  defaultCleanupBatchSize,
		maxBatches: defaultCleanupMaxBatches,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run чистит ключи сразу и затем по таймеру, пока не отменён ctx.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.repo == nil {
		w.logger.Warn("idempotency cleanup worker is disabled: repo is nil")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.observe(w.RunOnce(ctx))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce удаляет ключи, просроченные на текущий момент.
func (w *CleanupWorker) RunOnce(ctx context.Context) (CleanupResult, error) {
	before := w.now().UTC()

	var res CleanupResult
	for res.Batches < w.maxBatches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		deleted, err := w.repo.DeleteExpired(ctx, before, w.batchSize)
		if err != nil {
			return res, err
		}
		res.Batches++
		res.Deleted += deleted
		if deleted < w.batchSize {
			return res, nil
		}
	}
	res.Truncated = true
	return res, nil
}

func (w *CleanupWorker) observe(res CleanupResult, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		w.metrics.RecordIdempotencyCleanup("error", res.Deleted)
		w.logger.WithError(err).WithField("deleted", res.Deleted).Warn("idempotency cleanup run failed")
		return
	}

	w.metrics.RecordIdempotencyCleanup("ok", res.Deleted)
	entry := w.logger.WithFields(log.Fields{"deleted": res.Deleted, "batches": res.Batches})
	switch {
	case res.Truncated:
		entry.Warn("idempotency cleanup hit batch limit, rest is left for the next run")
	case res.Deleted > 0:
		entry.Info("idempotency cleanup completed")
	}
}
