package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dsdroute/dsdroute-backend/api/routes"
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
	"github.com/dsdroute/dsdroute-backend/pkg/db"
	"github.com/dsdroute/dsdroute-backend/pkg/logger"
	"github.com/dsdroute/dsdroute-backend/pkg/metrics"
	"github.com/dsdroute/dsdroute-backend/pkg/migrate"
	"github.com/dsdroute/dsdroute-backend/pkg/outbox"
	"github.com/dsdroute/dsdroute-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	if err := svcs.Users.EnsureAdmin(context.Background(), cfg.Bootstrap); err != nil {
		logg.Error(context.Background(), "failed to seed bootstrap admin", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics()

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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, svcs),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	gormDB := dbClient.DB()

	usersRepo := users.NewRepository(gormDB)
	productsRepo := catalog.NewRepository(gormDB)
	shopsRepo := shops.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)
	returnsRepo := returns.NewRepository(gormDB)
	creditRepo := credit.NewRepository(gormDB)
	notifyRepo := notify.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authSvc, err := auth.NewService(usersRepo, redisClient, cfg.JWT, cfg.AuthRateLimit, logg)
	if err != nil {
		return routes.Services{}, err
	}
	usersSvc, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		return routes.Services{}, err
	}
	catalogSvc, err := catalog.NewService(productsRepo)
	if err != nil {
		return routes.Services{}, err
	}
	creditSvc, err := credit.NewService(creditRepo)
	if err != nil {
		return routes.Services{}, err
	}
	shopsSvc, err := shops.NewService(shopsRepo, creditSvc)
	if err != nil {
		return routes.Services{}, err
	}
	notifySvc, err := notify.NewService(notifyRepo, usersRepo, outboxSvc, logg)
	if err != nil {
		return routes.Services{}, err
	}
	ordersSvc, err := orders.NewService(dbClient, ordersRepo, productsRepo, shopsRepo, returnsRepo, paymentsRepo, creditSvc, notifySvc)
	if err != nil {
		return routes.Services{}, err
	}
	paymentsSvc, err := payments.NewService(dbClient, paymentsRepo, ordersRepo, notifySvc)
	if err != nil {
		return routes.Services{}, err
	}
	returnsSvc, err := returns.NewService(dbClient, returnsRepo, productsRepo, ordersRepo, notifySvc)
	if err != nil {
		return routes.Services{}, err
	}
	dashboardSvc, err := dashboard.NewService(ordersRepo, paymentsRepo, returnsRepo, creditRepo)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authSvc,
		Users:         usersSvc,
		Catalog:       catalogSvc,
		Shops:         shopsSvc,
		Orders:        ordersSvc,
		Payments:      paymentsSvc,
		Returns:       returnsSvc,
		Credit:        creditSvc,
		Notifications: notifySvc,
		Dashboard:     dashboardSvc,
	}, nil
}
