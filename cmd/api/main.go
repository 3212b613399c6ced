package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/atacadobras/atacado-backend/api/routes"
	cartsvc "github.com/atacadobras/atacado-backend/internal/cart"
	checkoutsvc "github.com/atacadobras/atacado-backend/internal/checkout"
	commissionsvc "github.com/atacadobras/atacado-backend/internal/commission"
	orderssvc "github.com/atacadobras/atacado-backend/internal/orders"
	paymentssvc "github.com/atacadobras/atacado-backend/internal/payments"
	shippingsvc "github.com/atacadobras/atacado-backend/internal/shipping"
	"github.com/atacadobras/atacado-backend/internal/suppliers"
	webhooksvc "github.com/atacadobras/atacado-backend/internal/webhooks"
	"github.com/atacadobras/atacado-backend/pkg/config"
	"github.com/atacadobras/atacado-backend/pkg/db"
	"github.com/atacadobras/atacado-backend/pkg/logger"
	"github.com/atacadobras/atacado-backend/pkg/melhorenvio"
	"github.com/atacadobras/atacado-backend/pkg/metrics"
	"github.com/atacadobras/atacado-backend/pkg/migrate"
	"github.com/atacadobras/atacado-backend/pkg/pagarme"
	"github.com/atacadobras/atacado-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	carrier, err := melhorenvio.NewClient(context.Background(), cfg.MelhorEnvio, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create melhor envio client", err)
		os.Exit(1)
	}

	gateway, err := pagarme.NewClient(context.Background(), cfg.Pagarme, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create pagarme client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	supplierRepo := suppliers.NewRepository(dbClient.DB())
	ordersRepo := orderssvc.NewRepository(dbClient.DB())
	commissionRepo := commissionsvc.NewRepository(dbClient.DB())
	submissionsRepo := checkoutsvc.NewRepository(dbClient.DB())

	cartStore, err := cartsvc.NewStore(redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(cartStore)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	shippingService, err := shippingsvc.NewService(carrier, supplierRepo, shippingsvc.NewSequencer(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	commissionService, err := commissionsvc.NewService(commissionRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create commission service", err)
		os.Exit(1)
	}

	paymentsService, err := paymentssvc.NewService(gateway, commissionService, supplierRepo, ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	ordersService, err := orderssvc.NewService(ordersRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		cartService,
		shippingService,
		paymentsService,
		ordersRepo,
		submissionsRepo,
		dbClient,
		redisClient,
		logg,
		checkoutMetrics,
		checkoutsvc.Config{
			MinimumPhysicalUnits: cfg.Checkout.MinimumPhysicalUnits,
			QuoteDebounce:        cfg.Checkout.QuoteDebounce,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := webhooksvc.NewService(ordersRepo, redisClient, cfg.Webhook.IdempotencyTTL, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Cart:       cartService,
			Checkout:   checkoutService,
			Orders:     ordersService,
			Commission: commissionService,
			Webhooks:   webhookService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
