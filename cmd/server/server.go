package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/jakobhellermann/beancount-staging/internal/adapter/http"
	"github.com/jakobhellermann/beancount-staging/internal/adapter/http/handler"
	"github.com/jakobhellermann/beancount-staging/internal/adapter/http/middleware"
	fileRepo "github.com/jakobhellermann/beancount-staging/internal/adapter/repository/file"
	postgresRepo "github.com/jakobhellermann/beancount-staging/internal/adapter/repository/postgres"
	redisRepo "github.com/jakobhellermann/beancount-staging/internal/adapter/repository/redis"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/config"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/eventpublisher"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/logger"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/metrics"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/postgres"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/redis"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/watcher"
	"github.com/jakobhellermann/beancount-staging/internal/usecase"
)

const (
	redisConnectTimeout = 30 * time.Second
	limiterCleanup      = 10 * time.Minute
)

// run wires every component and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(reg)

	// Sources
	journal := fileRepo.NewFileSource(cfg.JournalFiles)
	staging, err := fileRepo.NewStagingSource(cfg.StagingFiles, cfg.StagingCommand, cfg.BaseDir)
	if err != nil {
		return err
	}

	var checks []handler.Check

	// Commit audit log
	var audit usecase.AuditRepository = postgresRepo.NewNullAuditRepository()
	if cfg.DatabaseURL != "" {
		pgLog := logger.Component(log, "postgres")
		pool, err := postgres.Connect(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		}, cfg.DatabaseTimeout, pgLog)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, pgLog); err != nil {
			return err
		}

		audit = postgresRepo.NewAuditRepository(pool, postgresRepo.NewRetrier().WithLogger(pgLog))
		checks = append(checks, handler.Check{Name: "postgres", Check: pool.Ping})
		log.Info().Msg("commit audit log enabled")
	}

	// Idempotency and drafts
	var idempotencyStore usecase.IdempotencyStore
	var drafts usecase.DraftStore
	if cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.RedisURL, redisConnectTimeout, logger.Component(log, "redis"))
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()

		idempotencyStore = redisRepo.NewIdempotencyStore(client)
		drafts = redisRepo.NewDraftStore(client, draftNamespace(cfg.JournalFiles))
		checks = append(checks, handler.Check{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
		log.Info().Msg("idempotency and draft persistence enabled")
	}

	// Review state
	broadcaster := eventpublisher.NewBroadcaster(eventpublisher.Config{
		Metrics: m,
		Logger:  logger.Component(log, "events"),
	})
	defer broadcaster.Close()

	review := usecase.NewReviewUseCase(usecase.ReviewConfig{
		Journal:      journal,
		Staging:      staging,
		JournalFiles: cfg.JournalFiles,
		Writer:       fileRepo.NewJournalWriter(),
		Audit:        audit,
		IDGen:        postgresRepo.NewULIDGenerator(),
		Notifier:     broadcaster,
		Drafts:       drafts,
		Metrics:      m,
		Logger:       logger.Component(log, "review"),
	})
	if err := review.Reload(ctx); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}
	log.Info().Int("pending", review.Count()).Msg("initial load complete")

	// HTTP
	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ReviewHandler:    handler.NewReviewHandler(review),
		EventsHandler:    handler.NewEventsHandler(broadcaster, 0),
		HealthHandler:    handler.NewHealthHandler(checks...),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      limiter,
		Metrics:          m,
		Gatherer:         reg,
		Logger:           logger.Component(log, "http"),
	})

	// Event streams never finish on their own, so there is no write timeout.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:     router,
		ReadTimeout: cfg.HTTPReadTimeout,
		IdleTimeout: cfg.HTTPIdleTimeout,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w := watcher.New(watcher.Config{
			Target:   review,
			Notifier: broadcaster,
			Metrics:  m,
			Logger:   logger.Component(log, "watcher"),
		})
		return ignoreCanceled(w.Start(gctx))
	})

	g.Go(func() error {
		return ignoreCanceled(eventpublisher.NewLogSubscriber(broadcaster, logger.Component(log, "events")).Start(gctx))
	})

	if limiter != nil {
		g.Go(func() error {
			return ignoreCanceled(limiter.Start(gctx, limiterCleanup))
		})
	}

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		// End event streams first so Shutdown does not wait on them.
		broadcaster.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}

// draftNamespace keeps drafts of different journals apart in a shared Redis.
func draftNamespace(journalFiles []string) string {
	if len(journalFiles) == 0 {
		return "default"
	}
	if abs, err := filepath.Abs(journalFiles[0]); err == nil {
		return abs
	}
	return journalFiles[0]
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
