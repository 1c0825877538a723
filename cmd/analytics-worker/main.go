package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/gearhub-backend/internal/analytics/router"
	"github.com/angelmondragon/gearhub-backend/internal/analytics/worker"
	"github.com/angelmondragon/gearhub-backend/internal/analytics/writer"
	"github.com/angelmondragon/gearhub-backend/pkg/bigquery"
	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/instance"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/metrics"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/registry"
	"github.com/angelmondragon/gearhub-backend/pkg/pubsub"
	"github.com/angelmondragon/gearhub-backend/pkg/redis"
)

const serviceKind = "analytics-worker"

func main() {
	_ = godotenv.Load()
	boot := logger.New(logger.Options{ServiceName: serviceKind})

	cfg, err := config.Load()
	if err != nil {
		boot.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg := logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceKind,
		"instance":    instance.GetID(),
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "analytics worker failed", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "analytics worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeLogged(ctx, logg, "redis", redisClient.Close)

	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.AnalyticsNeeds(cfg.PubSub), logg)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	defer closeLogged(ctx, logg, "pubsub", psClient.Close)

	bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		return fmt.Errorf("bigquery: %w", err)
	}
	defer closeLogged(ctx, logg, "bigquery", bq.Close)

	facts, err := writer.New(bq, writer.Config{
		OrderFactsTable: cfg.BigQuery.OrderFactsTable,
		BatchSize:       cfg.BigQuery.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("order facts writer: %w", err)
	}
	if cfg.BigQuery.AutoCreate {
		created, err := bq.EnsureTable(ctx, facts.Table(), facts.Schema(), writer.PartitionField)
		if err != nil {
			return fmt.Errorf("ensure %s: %w", facts.Table(), err)
		}
		if created {
			logg.Info(logg.WithField(ctx, "table", facts.Table()), "created order facts table")
		}
	}
	// Flush on the way out even though ctx is already canceled.
	defer func() {
		if err := facts.Flush(context.WithoutCancel(ctx)); err != nil {
			logg.Error(ctx, "failed to flush order facts", err)
		}
	}()

	claims, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return fmt.Errorf("idempotency: %w", err)
	}
	handler, err := router.NewRouter(facts, registry.NewStorefrontDecoders(), logg, nil)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	sub := psClient.AnalyticsSubscription()
	if sub == nil {
		return errors.New("analytics subscription not configured")
	}
	svc, err := worker.NewService(worker.ServiceParams{
		Subscription: sub,
		Handler:      handler,
		Claims:       claims,
		Metrics:      metrics.NewConsumerMetrics(prometheus.DefaultRegisterer),
		Logger:       logg,
	})
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}

	if err := metrics.NewServer(cfg.Service.MetricsAddr, prometheus.DefaultGatherer, logg).Start(ctx); err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	logg.Info(ctx, "analytics worker ready")
	return svc.Run(ctx)
}

func closeLogged(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "failed to close "+name, err)
	}
}
