package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/SscSPs/doc_signing_app/cmd/docs"
	portsrepo "github.com/SscSPs/doc_signing_app/internal/core/ports/repositories"
	"github.com/SscSPs/doc_signing_app/internal/core/services"
	"github.com/SscSPs/doc_signing_app/internal/events/kafka"
	"github.com/SscSPs/doc_signing_app/internal/handlers"
	"github.com/SscSPs/doc_signing_app/internal/metrics"
	"github.com/SscSPs/doc_signing_app/internal/middleware"
	"github.com/SscSPs/doc_signing_app/internal/platform/config"
	"github.com/SscSPs/doc_signing_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/doc_signing_app/internal/repositories/memory"
	"github.com/SscSPs/doc_signing_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @title Document Signing API
// @version 1.0
// @description Dispatches rendered documents for signatures, captures signatures and keeps a tamper-evident audit trail.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the operator JWT.

// @securityDefinitions.apikey SigningToken
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the signing link token. The token may also be passed as ?token=.
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	var repos portsrepo.RepositoryProvider
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		repos = memory.NewRepositoryProvider(memory.NewStore())
	default:
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.ClosePgxPool(dbPool)
		logger.Info("Database connection pool established.")

		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsURL, logger); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		repos = pgsql.NewRepositoryProvider(dbPool)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("Rate limit counters stored in redis")
	}

	signLimiter, err := middleware.NewLimiter(cfg.SignRateLimit, redisClient)
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metrics.MustRegister("doc-signing")
	var containerOpts []services.ContainerOption
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewCompletionPublisher(cfg.KafkaBrokers, cfg.KafkaCompletionTopic)
		if err != nil {
			logger.Error("Failed to create completion publisher", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer publisher.Close()
		containerOpts = append(containerOpts, services.WithCompletionPublisher(publisher))
	}
	serviceContainer := services.NewServiceContainer(cfg, repos, containerOpts...)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, metrics)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), middleware.MetricsMiddleware())

	if len(cfg.CORSAllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
		corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}
		r.Use(cors.New(corsConfig))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(r, cfg, serviceContainer, signLimiter)

	logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
