package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/gearhub-backend/api/controllers"
	analyticscontrollers "github.com/angelmondragon/gearhub-backend/api/controllers/analytics"
	cartcontrollers "github.com/angelmondragon/gearhub-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/gearhub-backend/api/controllers/orders"
	"github.com/angelmondragon/gearhub-backend/api/middleware"
	"github.com/angelmondragon/gearhub-backend/internal/analytics"
	"github.com/angelmondragon/gearhub-backend/internal/auth"
	"github.com/angelmondragon/gearhub-backend/internal/cart"
	"github.com/angelmondragon/gearhub-backend/internal/catalog"
	"github.com/angelmondragon/gearhub-backend/internal/contact"
	"github.com/angelmondragon/gearhub-backend/internal/coupons"
	"github.com/angelmondragon/gearhub-backend/internal/faq"
	"github.com/angelmondragon/gearhub-backend/internal/notifications"
	"github.com/angelmondragon/gearhub-backend/internal/orders"
	"github.com/angelmondragon/gearhub-backend/internal/pricing"
	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/metrics"
	"github.com/angelmondragon/gearhub-backend/pkg/redis"
)

// Services groups the domain services served over HTTP. A nil service makes
// its routes answer with an internal error instead of panicking.
type Services struct {
	Catalog       catalog.Service
	Cart          cart.Service
	Pricing       *pricing.Calculator
	Orders        orders.Service
	Contact       contact.Service
	FAQ           faq.Service
	Coupons       coupons.Service
	Notifications notifications.Service
	Auth          auth.Service
	Analytics     analytics.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	svc Services,
	readiness ...controllers.ReadinessCheck,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	// A nil *redis.Client must not reach the middleware as a non-nil interface.
	idempotency := passthrough
	loginLimit := passthrough
	if redisClient != nil {
		idempotency = middleware.Idempotency(redisClient, logg)
		loginLimit = middleware.Throttle(middleware.LoginThrottle{
			Name:       "admin-login",
			Window:     cfg.AuthRateLimit.LoginWindow,
			IPLimit:    cfg.AuthRateLimit.LoginIPLimit,
			EmailLimit: cfg.AuthRateLimit.LoginEmailLimit,
		}, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogList(svc.Catalog, logg))
			r.Get("/products/featured", controllers.CatalogFeatured(svc.Catalog, logg))
			r.Get("/products/{slug}", controllers.CatalogProduct(svc.Catalog, logg))
			r.Get("/products/{slug}/related", controllers.CatalogRelated(svc.Catalog, logg))
			r.Get("/categories", controllers.CatalogCategories(svc.Catalog, logg))
			r.Get("/brands", controllers.CatalogBrands(svc.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.CartToken(logg))
			r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(svc.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(svc.Cart, logg))
			r.Patch("/items/{variantId}", cartcontrollers.CartUpdateItem(svc.Cart, logg))
			r.Delete("/items/{variantId}", cartcontrollers.CartRemoveItem(svc.Cart, logg))
			r.Post("/coupon", cartcontrollers.CartApplyCoupon(svc.Cart, logg))
			r.Delete("/coupon", cartcontrollers.CartRemoveCoupon(svc.Cart, logg))
		})

		r.Post("/pricing/quote", controllers.PricingQuote(svc.Pricing, logg))

		r.With(middleware.CartToken(logg), idempotency).
			Post("/checkout", ordercontrollers.Checkout(svc.Orders, logg))
		r.Get("/orders/{orderNumber}", ordercontrollers.Lookup(svc.Orders, logg))

		r.Post("/contact", controllers.ContactSubmit(svc.Contact, logg))
		r.Get("/faqs", controllers.FAQList(svc.FAQ, logg))

		r.With(loginLimit).Post("/auth/admin/login", controllers.AdminAuthLogin(svc.Auth, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
		r.Use(idempotency)

		r.Get("/session", controllers.AdminSession(svc.Auth, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(svc.Orders, logg))
			r.Get("/{id}", ordercontrollers.AdminDetail(svc.Orders, logg))
			r.Patch("/{id}/status", ordercontrollers.AdminUpdateStatus(svc.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
		})

		r.Get("/coupons", controllers.AdminCouponList(svc.Coupons, logg))
		r.Post("/coupons", controllers.AdminCouponCreate(svc.Coupons, logg))
		r.Post("/faqs", controllers.AdminFAQCreate(svc.FAQ, logg))

		r.Get("/analytics/sales", analyticscontrollers.AdminSales(svc.Analytics, logg))
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
