package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin/internal/config"
	"github.com/vasiliy-maslov/shop-admin/internal/db"
	adminHttp "github.com/vasiliy-maslov/shop-admin/internal/handler/http"
	"github.com/vasiliy-maslov/shop-admin/internal/money"
	"github.com/vasiliy-maslov/shop-admin/internal/order"
	"github.com/vasiliy-maslov/shop-admin/internal/pricing"
	"github.com/vasiliy-maslov/shop-admin/internal/promotion"
	"github.com/vasiliy-maslov/shop-admin/internal/settings"
)

func setupLogger(cfg config.AppConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "shop-admin").Logger()
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)

	log.Info().Msg("Shop admin starting...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := db.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// Settings fall back to Postgres when the cache is unavailable.
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis is unreachable, settings cache disabled until it recovers")
	}

	formatter, err := money.NewFormatter(cfg.Money.Locale, cfg.Money.CurrencySymbol)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create money formatter")
	}

	productRepo := catalog.NewRepository(pg.Pool)
	attributeRepo := catalog.NewAttributeRepository(pg.Pool)
	promotionRepo := promotion.NewRepository(pg.Pool)
	orderRepo := order.NewRepository(pg.Pool)
	settingsRepo := settings.NewRepository(pg.SQLX())

	engine := pricing.NewEngine(productRepo, promotionRepo, pricing.WithConcurrency(cfg.Pricing.RecomputeConcurrency))

	productSvc := catalog.NewService(productRepo, engine, catalog.StockPolicy{LowStockThreshold: cfg.Catalog.LowStockThreshold})
	attributeSvc := catalog.NewAttributeService(attributeRepo)
	promotionSvc := promotion.NewService(promotionRepo, engine)
	orderSvc := order.NewService(orderRepo, engine)
	settingsSvc := settings.NewService(settingsRepo, settings.NewRedisCache(redisClient, cfg.Redis.KeyPrefix), cfg.Redis.SettingsTTL)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	adminHttp.NewProductHandler(productSvc, engine, orderSvc, formatter).RegisterRoutes(router)
	adminHttp.NewAttributeHandler(attributeSvc).RegisterRoutes(router)
	adminHttp.NewPromotionHandler(promotionSvc).RegisterRoutes(router)
	adminHttp.NewOrderHandler(orderSvc, formatter).RegisterRoutes(router)
	adminHttp.NewSettingsHandler(settingsSvc).RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shop admin stopped gracefully")
}
