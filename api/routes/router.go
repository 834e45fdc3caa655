package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dsdroute/dsdroute-backend/api/controllers"
	"github.com/dsdroute/dsdroute-backend/api/middleware"
	"github.com/dsdroute/dsdroute-backend/internal/auth"
	"github.com/dsdroute/dsdroute-backend/internal/catalog"
	"github.com/dsdroute/dsdroute-backend/internal/credit"
	"github.com/dsdroute/dsdroute-backend/internal/dashboard"
	"github.com/dsdroute/dsdroute-backend/internal/notify"
	"github.com/dsdroute/dsdroute-backend/internal/orders"
	"github.com/dsdroute/dsdroute-backend/internal/payments"
	"github.com/dsdroute/dsdroute-backend/internal/returns"
	"github.com/dsdroute/dsdroute-backend/internal/shops"
	"github.com/dsdroute/dsdroute-backend/internal/users"
	"github.com/dsdroute/dsdroute-backend/pkg/config"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	"github.com/dsdroute/dsdroute-backend/pkg/logger"
	"github.com/dsdroute/dsdroute-backend/pkg/metrics"
	"github.com/dsdroute/dsdroute-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Catalog       catalog.Service
	Shops         shops.Service
	Orders        orders.Service
	Payments      payments.Service
	Returns       returns.Service
	Credit        credit.Service
	Notifications notify.Service
	Dashboard     dashboard.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
		r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequirePermission(enums.PermManageUsers, logg))
			r.Get("/", controllers.UserList(svcs.Users, logg))
			r.Post("/", controllers.UserCreate(svcs.Users, logg))
			r.Get("/{userId}", controllers.UserDetail(svcs.Users, logg))
			r.Patch("/{userId}/active", controllers.UserSetActive(svcs.Users, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(svcs.Catalog, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(enums.PermManageProducts, logg))
				r.Post("/", controllers.ProductCreate(svcs.Catalog, logg))
				r.Patch("/{productId}", controllers.ProductUpdate(svcs.Catalog, logg))
				r.Put("/{productId}/stock", controllers.ProductAdjustStock(svcs.Catalog, logg))
				r.Delete("/{productId}", controllers.ProductDeactivate(svcs.Catalog, logg))
			})
		})

		r.Route("/shops", func(r chi.Router) {
			r.Get("/", controllers.ShopList(svcs.Shops, logg))
			r.Get("/{shopId}", controllers.ShopDetail(svcs.Shops, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(enums.PermViewCreditBills, logg))
				r.Get("/{shopId}/credit-bills", controllers.CreditBillsByShop(svcs.Credit, logg))
				r.Get("/{shopId}/credit-outstanding", controllers.CreditOutstandingByShop(svcs.Credit, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(enums.PermManageShops, logg))
				r.Post("/", controllers.ShopCreate(svcs.Shops, logg))
				r.Patch("/{shopId}", controllers.ShopUpdate(svcs.Shops, logg))
				r.Delete("/{shopId}", controllers.ShopDeactivate(svcs.Shops, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.With(middleware.RequirePermission(enums.PermCreateOrders, logg)).
				Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.With(middleware.RequirePermission(enums.PermApproveOrders, logg)).
				Post("/{orderId}/approve", controllers.OrderApprove(svcs.Orders, logg))
			r.With(middleware.RequirePermission(enums.PermApproveOrders, logg)).
				Post("/{orderId}/reject", controllers.OrderReject(svcs.Orders, logg))
			r.With(middleware.RequirePermission(enums.PermDeliverOrders, logg)).
				Post("/{orderId}/deliver", controllers.OrderDeliver(svcs.Orders, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.PaymentList(svcs.Payments, logg))
			r.Get("/{paymentId}", controllers.PaymentDetail(svcs.Payments, logg))
			r.With(middleware.RequirePermission(enums.PermRecordPayments, logg)).
				Post("/", controllers.PaymentCreate(svcs.Payments, logg))
			r.With(middleware.RequirePermission(enums.PermVerifyPayments, logg)).
				Post("/{paymentId}/verify", controllers.PaymentVerify(svcs.Payments, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.ReturnList(svcs.Returns, logg))
			r.Get("/{returnId}", controllers.ReturnDetail(svcs.Returns, logg))
			r.With(middleware.RequirePermission(enums.PermCreateReturns, logg)).
				Post("/", controllers.ReturnCreate(svcs.Returns, logg))
			r.With(middleware.RequirePermission(enums.PermApproveReturns, logg)).
				Post("/{returnId}/approve", controllers.ReturnApprove(svcs.Returns, logg))
			r.With(middleware.RequirePermission(enums.PermApproveReturns, logg)).
				Post("/{returnId}/reject", controllers.ReturnReject(svcs.Returns, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequirePermission(enums.PermViewNotifications, logg))
			r.Get("/", controllers.NotificationList(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(svcs.Notifications, logg))
		})

		r.With(middleware.RequirePermission(enums.PermViewDashboard, logg)).
			Get("/dashboard", controllers.DashboardSummary(svcs.Dashboard, logg))
	})

	return r
}
