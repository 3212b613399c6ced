package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atacadobras/atacado-backend/api/controllers"
	"github.com/atacadobras/atacado-backend/api/middleware"
	cartsvc "github.com/atacadobras/atacado-backend/internal/cart"
	checkoutsvc "github.com/atacadobras/atacado-backend/internal/checkout"
	commissionsvc "github.com/atacadobras/atacado-backend/internal/commission"
	orderssvc "github.com/atacadobras/atacado-backend/internal/orders"
	webhooksvc "github.com/atacadobras/atacado-backend/internal/webhooks"
	"github.com/atacadobras/atacado-backend/pkg/config"
	"github.com/atacadobras/atacado-backend/pkg/db"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	"github.com/atacadobras/atacado-backend/pkg/logger"
	"github.com/atacadobras/atacado-backend/pkg/redis"
)

type Services struct {
	Cart       cartsvc.Service
	Checkout   checkoutsvc.Service
	Orders     orderssvc.Service
	Commission commissionsvc.Service
	Webhooks   *webhooksvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/payment", controllers.PaymentWebhook(svcs.Webhooks, logg))
		r.Post("/shipment", controllers.ShipmentWebhook(svcs.Webhooks, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleBuyer, logg))

			r.Route("/cart", func(r chi.Router) {
				minimumUnits := cfg.Checkout.MinimumPhysicalUnits
				r.Get("/", controllers.CartFetch(svcs.Cart, minimumUnits, logg))
				r.Post("/items", controllers.CartAddLine(svcs.Cart, minimumUnits, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateQuantity(svcs.Cart, minimumUnits, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveLine(svcs.Cart, minimumUnits, logg))
				r.Delete("/", controllers.CartClear(svcs.Cart, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/quotes", controllers.CheckoutQuotes(svcs.Checkout, logg))
				r.Post("/", controllers.CheckoutConfirm(svcs.Checkout, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Post("/{orderId}/status", controllers.OrderTransition(svcs.Orders, logg))
			r.With(middleware.RequireRole(enums.ActorRoleSupplier, logg)).
				Post("/{orderId}/shipment", controllers.OrderRegisterShipment(svcs.Orders, logg))
		})

		r.Route("/commission", func(r chi.Router) {
			r.Get("/", controllers.CommissionActive(svcs.Commission, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))
				r.Post("/", controllers.CommissionSet(svcs.Commission, logg))
				r.Get("/history", controllers.CommissionHistory(svcs.Commission, logg))
			})
		})
	})

	return r
}
