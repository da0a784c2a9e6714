package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localmarthq/localmart-backend/api/controllers"
	"github.com/localmarthq/localmart-backend/api/middleware"
	internalnotifications "github.com/localmarthq/localmart-backend/internal/notifications"
	internalorders "github.com/localmarthq/localmart-backend/internal/orders"
	internalproducts "github.com/localmarthq/localmart-backend/internal/products"
	"github.com/localmarthq/localmart-backend/pkg/config"
	"github.com/localmarthq/localmart-backend/pkg/db"
	"github.com/localmarthq/localmart-backend/pkg/enums"
	"github.com/localmarthq/localmart-backend/pkg/logger"
	"github.com/localmarthq/localmart-backend/pkg/metrics"
	pkgredis "github.com/localmarthq/localmart-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *pkgredis.Client
	Metrics       *metrics.HTTPMetrics
	MetricsGather prometheus.Gatherer
	Orders        internalorders.Service
	Notifications internalnotifications.Service
	Products      internalproducts.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.MetricsGather != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGather, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if deps.Redis != nil {
			r.Use(middleware.RateLimit(cfg.RateLimit, deps.Redis, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		r.Route("/orders", func(r chi.Router) {
			r.With(requireCustomer(logg)).Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.With(requireCustomer(logg)).Get("/", controllers.ListOrders(deps.Orders, logg))

			r.Route("/shop", func(r chi.Router) {
				r.Use(requireShopOwner(logg))
				r.Get("/orders", controllers.ListShopOrders(deps.Orders, logg))
				r.Get("/stats", controllers.ShopOrderStats(deps.Orders, logg))
			})
			r.With(requireAdmin(logg)).Get("/admin/all", controllers.ListAllOrders(deps.Orders, logg))

			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			r.Put("/{orderId}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
			r.With(requireCustomer(logg)).Put("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			r.With(requireCustomer(logg)).Post("/{orderId}/rate", controllers.RateOrder(deps.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(deps.Notifications, logg))
			r.Put("/mark-all-read", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Delete("/delete-read", controllers.DeleteReadNotifications(deps.Notifications, logg))
			r.Put("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Delete("/{notificationId}", controllers.DeleteNotification(deps.Notifications, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Use(requireShopOwner(logg))
			r.Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Put("/{productId}", controllers.UpdateProduct(deps.Products, logg))
			r.Delete("/{productId}", controllers.DeactivateProduct(deps.Products, logg))
			r.Put("/{productId}/restock", controllers.RestockProduct(deps.Products, logg))
			r.Put("/{productId}/price", controllers.ChangeProductPrice(deps.Products, logg))
		})
	})

	return r
}

func requireCustomer(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRole(logg, string(enums.UserRoleCustomer), string(enums.UserRoleAdmin))
}

func requireShopOwner(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRole(logg, string(enums.UserRoleShopOwner), string(enums.UserRoleAdmin))
}

func requireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRole(logg, string(enums.UserRoleAdmin))
}
