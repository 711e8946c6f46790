package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/celulandia/cuentas/internal/adapter/dolar"
	httpAdapter "github.com/celulandia/cuentas/internal/adapter/http"
	"github.com/celulandia/cuentas/internal/adapter/http/handler"
	"github.com/celulandia/cuentas/internal/adapter/http/middleware"
	postgresRepo "github.com/celulandia/cuentas/internal/adapter/repository/postgres"
	redisRepo "github.com/celulandia/cuentas/internal/adapter/repository/redis"
	"github.com/celulandia/cuentas/internal/infrastructure/config"
	"github.com/celulandia/cuentas/internal/infrastructure/eventpublisher"
	"github.com/celulandia/cuentas/internal/infrastructure/logger"
	"github.com/celulandia/cuentas/internal/infrastructure/metrics"
	"github.com/celulandia/cuentas/internal/infrastructure/postgres"
	"github.com/celulandia/cuentas/internal/infrastructure/redis"
	"github.com/celulandia/cuentas/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if cfg.MigrationsEnabled {
		if err := postgres.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			return err
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to postgres")

	m := metrics.New()

	// Redis backs the quote cache and idempotency keys; the service runs without it.
	var (
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, running without cache and idempotency")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info().Msg("connected to redis")
		cache = redisRepo.NewCache(redisClient).WithMetrics(m)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	movementRepo := postgresRepo.NewMovementRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	retrier := postgresRepo.NewRetrier(logger, postgresRepo.WithRetryMetrics(m))
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	quoteUC := usecase.NewExchangeRateUseCase(
		dolar.NewClient(cfg.DolarAPIURL, cfg.DolarAPITimeout),
		cache,
		cfg.QuoteCacheTTL,
		logger,
		m,
	)
	movementUC := usecase.NewMovementUseCase(txManager, movementRepo, outboxRepo, quoteUC, retrier, idGen, logger, m)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		MovementHandler:  handler.NewMovementHandler(movementUC),
		QuoteHandler:     handler.NewQuoteHandler(quoteUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Logger:           logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if publisher != nil {
		ep := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  publisher,
			Logger:     logger,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
		})
		g.Go(func() error {
			if err := ep.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		rateLimiter.StartCleanup(gctx, 10*time.Minute, time.Hour)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newPublisher selects the outbox transport. A nil publisher disables the worker.
func newPublisher(cfg *config.Config, logger zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	switch cfg.EventPublisher {
	case config.PublisherNone:
		logger.Info().Msg("event publisher disabled")
		return nil, func() {}, nil
	case config.PublisherAMQP:
		pub, err := eventpublisher.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to AMQP broker: %w", err)
		}
		logger.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing events to AMQP")
		return pub, func() {
			if err := pub.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close AMQP connection")
			}
		}, nil
	case config.PublisherLog:
		return eventpublisher.NewLogPublisher(logger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown event publisher %q", cfg.EventPublisher)
	}
}
