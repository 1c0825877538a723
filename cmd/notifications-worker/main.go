package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/gearhub-backend/internal/notifications"
	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db"
	"github.com/angelmondragon/gearhub-backend/pkg/email"
	"github.com/angelmondragon/gearhub-backend/pkg/instance"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/metrics"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/registry"
	"github.com/angelmondragon/gearhub-backend/pkg/pubsub"
	"github.com/angelmondragon/gearhub-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "notifications-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "notifications-worker"

	logg = logger.New(logger.Options{
		ServiceName: "notifications-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.NotificationNeeds(cfg.PubSub), logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	mailer, err := email.NewClient(cfg.Sendgrid, logg)
	requireResource(ctx, logg, "sendgrid", err)
	if !mailer.Enabled() {
		logg.Warn(ctx, "sendgrid api key not set, emails will only be logged")
	}

	// Realtime is optional; without a topic the channel is counted as skipped.
	var realtime notifications.Realtime
	if publisher := pubsubClient.RealtimePublisher(); publisher != nil {
		pubsubRealtime, err := notifications.NewPubSubRealtime(publisher)
		requireResource(ctx, logg, "realtime publisher", err)
		realtime = pubsubRealtime
	}

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Mailer:   mailer,
		Realtime: realtime,
		Repo:     notifications.NewRepository(dbClient.DB()),
		Metrics:  metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
		Store:    cfg.Store,
		Logger:   logg,
	})
	requireResource(ctx, logg, "dispatcher", err)

	guard, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	decoders := registry.NewStorefrontDecoders()
	messages := metrics.NewConsumerMetrics(prometheus.DefaultRegisterer)
	consumers := map[string]runner{}
	for name, sub := range map[string]*gcppubsub.Subscriber{
		"orders":  pubsubClient.NotificationSubscription(),
		"support": pubsubClient.SupportSubscription(),
	} {
		if sub == nil {
			requireResource(ctx, logg, name+" subscription", errors.New("subscription not configured"))
		}
		consumer, err := notifications.NewConsumer(notifications.ConsumerParams{
			Subscription: sub,
			Decoders:     decoders,
			Dispatcher:   dispatcher,
			Guard:        guard,
			Metrics:      messages,
			Logger:       logg,
		})
		requireResource(ctx, logg, name+" consumer", err)
		consumers[name] = consumer
	}

	service, err := NewService(ServiceParams{
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		PubSub:    pubsubClient,
		Consumers: consumers,
	})
	requireResource(ctx, logg, "worker service", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	err = metrics.NewServer(cfg.Service.MetricsAddr, prometheus.DefaultGatherer, logg).Start(runCtx)
	requireResource(runCtx, logg, "metrics server", err)
	logg.Info(runCtx, "notifications worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "notifications worker failed", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "notifications worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
