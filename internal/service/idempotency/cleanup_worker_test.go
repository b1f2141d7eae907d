package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

var _ domain.IdempotencyRepository = (*stubCleanupRepo)(nil)

// stubCleanupRepo отдаёт заранее заданные результаты DeleteExpired.
type stubCleanupRepo struct {
	domain.IdempotencyRepository

	mu      sync.Mutex
	results []int
	errs    []error
	calls   int
	before  []time.Time
}

func (s *stubCleanupRepo) DeleteExpired(_ context.Context, before time.Time, _ int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.before = append(s.before, before)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	if len(s.results) == 0 {
		return 0, nil
	}
	n := s.results[0]
	s.results = s.results[1:]
	return n, nil
}

func (s *stubCleanupRepo) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCleanupWorker_RunOnce_Batches(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := &stubCleanupRepo{results: []int{2, 2, 1}}
	worker := NewCleanupWorker(repo, WithBatchSize(2), WithClock(func() time.Time { return now }))

	res, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, CleanupResult{Deleted: 5, Batches: 3}, res)
	require.Equal(t, 3, repo.callCount())
	for _, b := range repo.before {
		require.True(t, b.Equal(now))
	}
}

func TestCleanupWorker_RunOnce_StopsAtBatchLimit(t *testing.T) {
	repo := &stubCleanupRepo{results: []int{2, 2, 2, 2}}
	worker := NewCleanupWorker(repo, WithBatchSize(2), WithMaxBatches(3))

	res, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, CleanupResult{Deleted: 6, Batches: 3, Truncated: true}, res)
	require.Equal(t, 3, repo.callCount())
}

func TestCleanupWorker_RunOnce_Error(t *testing.T) {
	boom := errors.New("boom")
	repo := &stubCleanupRepo{results: []int{10}, errs: []error{nil, boom}}
	worker := NewCleanupWorker(repo, WithBatchSize(10))

	res, err := worker.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 10, res.Deleted)
	require.Equal(t, 1, res.Batches)
}

func TestCleanupWorker_RunOnce_CanceledContext(t *testing.T) {
	repo := &stubCleanupRepo{}
	worker := NewCleanupWorker(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := worker.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, repo.callCount())
}

func TestCleanupWorker_InvalidOptionsKeepDefaults(t *testing.T) {
	worker := NewCleanupWorker(nil, WithInterval(0), WithBatchSize(-1), WithMaxBatches(0), WithClock(nil), WithLogger(nil))
	require.Equal(t, defaultCleanupInterval, worker.interval)
	require.Equal(t, defaultCleanupBatchSize, worker.batchSize)
	require.Equal(t, defaultCleanupMaxBatches, worker.maxBatches)
	require.NotNil(t, worker.now)
	require.NotNil(t, worker.logger)

	// без репозитория Run сразу возвращается
	worker.Run(context.Background())
}

func TestCleanupWorker_Run_StopsOnContextCancel(t *testing.T) {
	repo := &stubCleanupRepo{}
	worker := NewCleanupWorker(repo,
		WithInterval(5*time.Millisecond),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	require.Eventually(t, func() bool { return repo.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestCleanupWorker_MemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()
	for i, ttl := range []time.Time{now.Add(-time.Hour), now.Add(-time.Minute), now.Add(time.Hour)} {
		_, err := repo.CreateProcessing(ctx, fmt.Sprintf("key-%d", i), "hash", ttl)
		require.NoError(t, err)
	}

	worker := NewCleanupWorker(repo, WithBatchSize(1), WithClock(func() time.Time { return now }))
	res, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Deleted)
	require.False(t, res.Truncated)

	_, err = repo.Get(ctx, "key-2")
	require.NoError(t, err, "live key must survive cleanup")
	_, err = repo.Get(ctx, "key-0")
	require.Error(t, err)
}
