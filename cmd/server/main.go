package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/aggregation"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/geocode"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/imagehash"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/lock"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/measure"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/rules"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/zones"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logger := logging.Setup(cfg.IsDev())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(database.DB, 5*time.Second)
	logger = logging.Attach(logger.Handler(), dbLogHandler)

	// Log cleanup (30-day retention)
	ctx, stop := context.WithCancel(context.Background())
	logging.StartCleanup(ctx, database.DB, logging.DefaultRetention)

	// Redis is optional; without it locks and the hash cache stay in-process.
	var rdb *redis.Client
	var locker lock.Locker = lock.NewMemory()
	var hasher imagehash.Hasher = imagehash.NewHTTPHasher(
		imagehash.WithTimeout(cfg.HashTimeout),
		imagehash.WithMaxBytes(cfg.HashMaxBytes),
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		locker = lock.NewRedis(rdb, cfg.LockTTL, logger)
		hasher = imagehash.NewCached(hasher, rdb, cfg.HashCacheTTL, logger)
		slog.Info("redis enabled", "addr", cfg.RedisAddr)
	}

	// Restricted zones
	zoneChecker := zones.Empty()
	if cfg.RestrictedZonesPath != "" {
		loaded, err := zones.LoadFromFile(cfg.RestrictedZonesPath)
		if err != nil {
			slog.Error("failed to load restricted zones", "path", cfg.RestrictedZonesPath, "error", err)
			os.Exit(1)
		}
		zoneChecker = loaded
	}
	slog.Info("restricted zones loaded", "zones", zoneChecker.Len())

	var ruleOpts []rules.Option
	if len(cfg.BannedKeywords) > 0 {
		ruleOpts = append(ruleOpts, rules.WithBannedKeywords(cfg.BannedKeywords))
	}
	ruleEngine := rules.NewEngine(zoneChecker, logger, ruleOpts...)

	var geocoder geocode.Geocoder = geocode.Static{Address: geocode.Unknown, ZoneID: geocode.Unknown}
	if cfg.GeocodingEnabled() {
		geocoder = geocode.NewNominatim(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, logger)
	}

	estimator := measure.NewEstimator(cfg.CameraDistanceM, cfg.HashTimeout, logger)

	// Aggregation engine
	aggregator := aggregation.NewAggregator(
		store.New(database.DB),
		hasher,
		locker,
		logger,
		aggregation.WithPersistTimeout(cfg.PersistTimeout),
	)
	lifecycle := aggregation.NewLifecycle(aggregator)

	// Services
	authService := services.NewAuthService(database.DB, cfg)
	reportService := services.NewReportService(database.DB, aggregator, lifecycle, ruleEngine, geocoder, estimator, logger)
	billboardService := services.NewBillboardService(database.DB, aggregator)
	userService := services.NewUserService(database.DB)

	// Handlers
	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Health:    handlers.NewHealthHandler(rdb, zoneChecker.Len()),
		Users:     handlers.NewUserHandler(userService),
		Reports:   handlers.NewReportHandler(reportService),
		Billboard: handlers.NewBillboardHandler(billboardService),
		Admin:     handlers.NewAdminHandler(reportService, billboardService),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, database.DB, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	stop()
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
