// Package app собирает зависимости магазина и управляет жизненным циклом серверов.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"

	"github.com/vladislavdragonenkov/storefront/internal/auth"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/service/payment"
	"github.com/vladislavdragonenkov/storefront/internal/service/review"
	"github.com/vladislavdragonenkov/storefront/internal/service/wishlist"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// App — собранное приложение: три сервера и фоновые воркеры.
type App struct {
	cfg    Config
	logger *log.Entry

	store    storage
	pubs     publishers
	registry *prometheus.Registry

	httpSrv  *http.Server
	httpLis  net.Listener
	opsSrv   *http.Server
	opsLis   net.Listener
	grpcSrv  *grpc.Server
	grpcLis  net.Listener
	grpcHlth *grpchealth.Server

	outbox  *outbox.Worker
	cleanup *idempotency.CleanupWorker
}

// Run собирает приложение и работает до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	a, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// New открывает хранилище, подключает Kafka и занимает порты.
// При ошибке всё уже открытое закрывается.
func New(ctx context.Context, cfg Config) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := log.WithField("component", "app")
	a := &App{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegisterer(a.registry)

	var idemRepo domain.IdempotencyRepository
	a.store, idemRepo, err = openStorage(ctx, cfg, logger.WithField("layer", "storage"))
	if err != nil {
		return nil, err
	}
	a.pubs = initPublishers(cfg, logger.WithField("layer", "kafka"))

	var verifier *auth.Verifier
	if cfg.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTLeeway)
	} else {
		logger.Warn("STOREFRONT_JWT_SECRET is empty, authenticated routes will reject every request")
	}

	api := httpapi.NewServer(httpapi.Config{
		Production:   cfg.Production,
		BodyLimit:    cfg.HTTPBodyLimit,
		AllowOrigins: cfg.CORSOrigins,
	}, httpapi.Deps{
		Orders: order.NewService(a.store,
			order.WithPaymentGateway(payment.NewStubGateway(payment.Config{
				RedirectBaseURL: cfg.PaymentRedirectURL,
				BankAccount:     cfg.PaymentBankAccount,
			})),
			order.WithMetrics(m),
			order.WithLogger(log.WithField("component", "order-service")),
		),
		Catalog: catalog.NewService(a.store,
			catalog.WithLogger(log.WithField("component", "catalog-service")),
			catalog.WithCategoryTTL(cfg.CategoryCacheTTL),
		),
		Carts: cart.NewService(a.store, log.WithField("component", "cart-service")),
		Reviews: review.NewService(a.store,
			review.WithMetrics(m),
			review.WithLogger(log.WithField("component", "review-service")),
		),
		Wishlists:   wishlist.NewService(a.store, log.WithField("component", "wishlist-service")),
		Verifier:    verifier,
		Idempotency: idempotency.NewGuard(idemRepo, cfg.IdempotencyTTL, log.WithField("component", "idempotency-guard")),
		Metrics:     m,
		Logger:      log.WithField("component", "http"),
	})

	outboxRepo := a.store.Repos().Outbox
	a.outbox = outbox.NewWorker(outboxRepo, a.pubs.events,
		outbox.WithLogger(log.WithField("component", "outbox-worker")),
		outbox.WithMetrics(m),
		outbox.WithDLQPublisher(a.pubs.dlq),
		outbox.WithEventsTopic(kafka.TopicOrderEvents),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
	a.cleanup = idempotency.NewCleanupWorker(idemRepo,
		idempotency.WithLogger(log.WithField("component", "idempotency-cleanup")),
		idempotency.WithMetrics(m),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)

	checks := health.NewHandler(version.GetVersion())
	checks.RegisterChecker("storage", health.NewSimpleChecker("storage", a.store.Ping))
	checks.RegisterChecker("outbox", health.NewBacklogChecker("outbox", func(ctx context.Context) (int, time.Time, error) {
		stats, err := outboxRepo.Stats(ctx)
		return stats.PendingCount, stats.OldestPendingAt, err
	}, cfg.OutboxMaxPending, cfg.OutboxMaxAge))

	a.httpSrv = &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	a.opsSrv = &http.Server{Handler: a.opsMux(checks), ReadHeaderTimeout: 5 * time.Second}
	a.grpcSrv, a.grpcHlth = newGRPCServer(a.registry, logger.WithField("layer", "grpc"))

	if a.httpLis, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
		return nil, fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}
	if a.opsLis, err = net.Listen("tcp", cfg.MetricsAddr); err != nil {
		return nil, fmt.Errorf("listen metrics %s: %w", cfg.MetricsAddr, err)
	}
	if a.grpcLis, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
		return nil, fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
	}
	return a, nil
}

// opsMux — служебный HTTP: метрики и пробы.
func (a *App) opsMux(checks *health.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	mux.Handle("/healthz", checks)
	mux.HandleFunc("/readyz", checks.ReadinessHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)
	return mux
}

func (a *App) HTTPAddr() string    { return a.httpLis.Addr().String() }
func (a *App) MetricsAddr() string { return a.opsLis.Addr().String() }
func (a *App) GRPCAddr() string    { return a.grpcLis.Addr().String() }

// Run обслуживает запросы до отмены ctx или падения одного из серверов.
// Возвращает ctx.Err() при штатной остановке.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.WithField("addr", a.HTTPAddr()).Info("http api listening")
		return serveHTTP(a.httpSrv, a.httpLis)
	})
	g.Go(func() error {
		a.logger.WithField("addr", a.MetricsAddr()).Info("metrics and health checks listening")
		return serveHTTP(a.opsSrv, a.opsLis)
	})
	g.Go(func() error {
		a.logger.WithField("addr", a.GRPCAddr()).Info("grpc health listening")
		setServing(a.grpcHlth, true)
		if err := a.grpcSrv.Serve(a.grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.outbox.Run(gctx)
		return nil
	})
	g.Go(func() error {
		a.cleanup.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.shutdown()
		return nil
	})

	err := g.Wait()
	a.release()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func serveHTTP(srv *http.Server, lis net.Listener) error {
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server %s: %w", lis.Addr(), err)
	}
	return nil
}

// shutdown останавливает серверы в пределах ShutdownTimeout.
func (a *App) shutdown() {
	a.logger.Info("shutting down")
	setServing(a.grpcHlth, false)

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	for _, srv := range []*http.Server{a.httpSrv, a.opsSrv} {
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Warn("http shutdown with error")
		}
	}

	stopped := make(chan struct{})
	go func() {
		a.grpcSrv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		a.logger.Warn("grpc graceful stop timed out, forcing stop")
		a.grpcSrv.Stop()
	}
}

// release закрывает listeners, Kafka и хранилище.
func (a *App) release() {
	for _, lis := range []net.Listener{a.httpLis, a.opsLis, a.grpcLis} {
		if lis != nil {
			_ = lis.Close()
		}
	}
	a.pubs.close(a.logger)
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.WithError(err).Warn("failed to close storage")
		}
	}
}
