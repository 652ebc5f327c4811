package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/roperoray30-create/meetgo/internal/config"
	"github.com/roperoray30-create/meetgo/internal/enrich"
	"github.com/roperoray30-create/meetgo/internal/handlers"
	"github.com/roperoray30-create/meetgo/internal/middleware"
	"github.com/roperoray30-create/meetgo/internal/repository"
	"github.com/roperoray30-create/meetgo/internal/services"
	"github.com/roperoray30-create/meetgo/pkg/cache"
	"github.com/roperoray30-create/meetgo/pkg/logger"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	// Set log level
	logger.SetLevel(logger.ParseLevel(cfg.Monitoring.LogLevel))
	logger.Info("Starting Meetgo API", map[string]any{
		"version":     "1.0.0",
		"environment": cfg.API.Environment,
	})

	// Initialize the document sink with retry logic
	var repo *repository.Repository
	err = repository.WithRetry(context.Background(), repository.DefaultRetryConfig, func() error {
		var retryErr error
		repo, retryErr = repository.NewRepository(
			cfg.Database.DSN(),
			cfg.Database.MaxConns,
			cfg.Database.MaxIdleConns,
		)
		return retryErr
	})
	if err != nil {
		logger.Error("Failed to connect to database", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer func() {
		_ = repo.Close()
	}()
	logger.Info("Connected to PostgreSQL", map[string]any{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})

	if err := repo.EnsureSchema(context.Background()); err != nil {
		logger.Error("Failed to ensure schema", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	if err := repo.HealthCheck(context.Background()); err != nil {
		logger.Error("Database health check failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	// Initialize Redis cache
	var redisCache *cache.Cache
	err = repository.WithRetry(context.Background(), repository.DefaultRetryConfig, func() error {
		var retryErr error
		redisCache, retryErr = cache.NewCache(
			cfg.Redis.Address(),
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.CacheTTL,
		)
		return retryErr
	})
	if err != nil {
		logger.Error("Failed to connect to Redis", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer func() {
		_ = redisCache.Close()
	}()
	logger.Info("Connected to Redis", map[string]any{
		"host": cfg.Redis.Host,
		"port": cfg.Redis.Port,
	})

	// Initialize the enrichment pipeline and services
	sensors := enrich.NewSensorHub()
	pipeline := enrich.NewPipeline(&cfg.Enrichment, redisCache, sensors)
	visitService := services.NewVisitService(repo, redisCache, pipeline)
	bookingService := services.NewBookingService(repo, redisCache)
	logger.Info("Initialized visit pipeline", map[string]any{
		"sensor_timeout": cfg.Enrichment.SensorTimeout.String(),
		"probe_timeout":  cfg.Enrichment.ProbeTimeout.String(),
	})

	// Initialize handlers
	handler := handlers.NewHandler(visitService, bookingService, redisCache)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		DisableStartupMessage: false,
		ServerHeader:          "Meetgo",
		AppName:               "Meetgo API v1.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			logger.Error("Request error", map[string]any{
				"error": err.Error(),
				"path":  c.Path(),
				"code":  code,
			})
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(middleware.Recover())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.Security.CORSOrigins))

	// Rate limiters
	rateLimiter := middleware.NewRateLimiter(redisCache, &cfg.RateLimit)

	// Routes
	app.Get("/health", handler.Health)
	app.Get("/metrics", handler.Metrics)
	app.Get("/dashboard", handler.Dashboard)

	// API v1 routes
	v1 := app.Group("/v1")
	v1.Post("/visits",
		rateLimiter.LimitByIP(),
		handler.Visit,
	)
	v1.Post("/visits/:id/location",
		rateLimiter.LimitByIP(),
		handler.SensorFix,
	)
	v1.Post("/bookings",
		rateLimiter.LimitByIP(),
		handler.Booking,
	)

	// Listing API
	api := app.Group("/api")
	api.Get("/visits", handler.RecentVisits)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = app.ShutdownWithContext(ctx)
		logger.Info("Server shutdown complete")
		os.Exit(0)
	}()

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.API.Host, cfg.API.Port)
	logger.Info("Meetgo API started", map[string]any{
		"address":   addr,
		"dashboard": fmt.Sprintf("http://%s/dashboard", addr),
	})

	if err := app.Listen(addr); err != nil {
		logger.Error("Server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
