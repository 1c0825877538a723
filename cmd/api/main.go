package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/gearhub-backend/api/controllers"
	"github.com/angelmondragon/gearhub-backend/api/routes"
	"github.com/angelmondragon/gearhub-backend/internal/analytics"
	"github.com/angelmondragon/gearhub-backend/internal/analytics/query"
	"github.com/angelmondragon/gearhub-backend/internal/auth"
	"github.com/angelmondragon/gearhub-backend/internal/cart"
	"github.com/angelmondragon/gearhub-backend/internal/catalog"
	"github.com/angelmondragon/gearhub-backend/internal/contact"
	"github.com/angelmondragon/gearhub-backend/internal/coupons"
	"github.com/angelmondragon/gearhub-backend/internal/faq"
	"github.com/angelmondragon/gearhub-backend/internal/notifications"
	"github.com/angelmondragon/gearhub-backend/internal/ordernumber"
	"github.com/angelmondragon/gearhub-backend/internal/orders"
	"github.com/angelmondragon/gearhub-backend/internal/pricing"
	"github.com/angelmondragon/gearhub-backend/pkg/bigquery"
	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db"
	"github.com/angelmondragon/gearhub-backend/pkg/instance"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/metrics"
	"github.com/angelmondragon/gearhub-backend/pkg/migrate"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox"
	"github.com/angelmondragon/gearhub-backend/pkg/redis"
	"github.com/angelmondragon/gearhub-backend/pkg/security"
	"github.com/angelmondragon/gearhub-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	requireResource(bootCtx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing database", err)
		}
	}()

	err = migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient)
	requireResource(bootCtx, logg, "dev migrations", err)

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	requireResource(bootCtx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing redis", err)
		}
	}()

	reg := prometheus.DefaultRegisterer
	httpMetrics := metrics.NewHTTPMetrics(reg)
	dbStats, err := dbClient.StatsCollector("gearhub")
	requireResource(bootCtx, logg, "database stats", err)
	reg.MustRegister(dbStats)

	pricingCfg, err := pricing.ConfigFromEnv(cfg.Pricing)
	requireResource(bootCtx, logg, "pricing config", err)
	calculator, err := pricing.NewCalculator(pricingCfg)
	requireResource(bootCtx, logg, "pricing calculator", err)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	requireResource(bootCtx, logg, "catalog service", err)

	couponService, err := coupons.NewService(coupons.NewRepository(dbClient.DB()))
	requireResource(bootCtx, logg, "coupon service", err)

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, dbClient, calculator, couponService, cfg.Store.Currency)
	requireResource(bootCtx, logg, "cart service", err)

	loc, err := cfg.OrderNumber.Location()
	requireResource(bootCtx, logg, "order number timezone", err)
	allocator, err := ordernumber.AllocatorByName(cfg.OrderNumber.Allocator, redisClient)
	requireResource(bootCtx, logg, "order number allocator", err)
	numbers, err := ordernumber.NewGenerator(ordernumber.Options{
		Prefix:    cfg.OrderNumber.Prefix,
		Location:  loc,
		Allocator: allocator,
		Metrics:   metrics.NewOrderNumberMetrics(reg),
	})
	requireResource(bootCtx, logg, "order number generator", err)

	outboxService := outbox.NewEmitter(outbox.NewRepository(dbClient.DB()), logg)

	orderParams := orders.ServiceParams{
		Repository: orders.NewRepository(dbClient.DB()),
		Carts:      cartRepo,
		Tx:         dbClient,
		Calculator: calculator,
		Coupons:    couponService,
		Numbers:    numbers,
		Outbox:     outboxService,
		Logger:     logg,
	}
	if cfg.Stripe.Enabled() {
		stripeClient, err := stripe.NewClient(bootCtx, cfg.Stripe, logg)
		requireResource(bootCtx, logg, "stripe", err)
		orderParams.Payments = stripeClient
	} else {
		logg.Warn(bootCtx, "stripe api key not set; card orders will not open payment intents")
	}
	orderService, err := orders.NewService(orderParams)
	requireResource(bootCtx, logg, "order service", err)

	contactService, err := contact.NewService(contact.ServiceParams{
		DB:      dbClient.DB(),
		Tx:      dbClient,
		Outbox:  outboxService,
		Limiter: redisClient,
		Config:  cfg.Contact,
		Logger:  logg,
	})
	requireResource(bootCtx, logg, "contact service", err)

	faqService, err := faq.NewService(faq.NewRepository(dbClient.DB()))
	requireResource(bootCtx, logg, "faq service", err)

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	requireResource(bootCtx, logg, "notification service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		AdminRepo: auth.NewRepository(dbClient.DB()),
		Hasher:    security.NewHasher(cfg.Password),
		JWTConfig: cfg.JWT,
		Logger:    logg,
	})
	requireResource(bootCtx, logg, "auth service", err)

	readiness := []controllers.ReadinessCheck{
		{Name: "database", Pinger: dbClient},
		{Name: "redis", Pinger: redisClient},
	}

	var analyticsService analytics.Service
	if cfg.GCP.ProjectID != "" {
		bqClient, err := bigquery.NewClient(bootCtx, cfg.GCP, cfg.BigQuery, logg)
		requireResource(bootCtx, logg, "bigquery", err)
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(bootCtx, "error closing bigquery client", err)
			}
		}()
		sales, err := query.NewSalesService(bqClient, bqClient.TableRef(cfg.BigQuery.OrderFactsTable))
		requireResource(bootCtx, logg, "sales query", err)
		analyticsService, err = analytics.NewService(analytics.ServiceParams{
			Sales:    sales,
			Cache:    redisClient,
			CacheTTL: cfg.BigQuery.ReportCacheTTL,
			Logger:   logg,
		})
		requireResource(bootCtx, logg, "analytics service", err)
		readiness = append(readiness, controllers.ReadinessCheck{Name: "bigquery", Pinger: bqClient})
	} else {
		logg.Warn(bootCtx, "gcp project not set; sales analytics disabled")
	}

	handler := routes.NewRouter(cfg, logg, redisClient, prometheus.DefaultGatherer, httpMetrics, routes.Services{
		Catalog:       catalogService,
		Cart:          cartService,
		Pricing:       calculator,
		Orders:        orderService,
		Contact:       contactService,
		FAQ:           faqService,
		Coupons:       couponService,
		Notifications: notificationService,
		Auth:          authService,
		Analytics:     analyticsService,
	}, readiness...)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"instance":    instance.GetID(),
		"serviceKind": cfg.Service.Kind,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}
	logg.Info(ctx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
