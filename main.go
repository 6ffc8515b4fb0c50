package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedlane/feedlane-backend/config"
	"github.com/feedlane/feedlane-backend/db"
	_ "github.com/feedlane/feedlane-backend/docs"
	"github.com/feedlane/feedlane-backend/handlers"
	"github.com/feedlane/feedlane-backend/internal/ratelimit"
	"github.com/feedlane/feedlane-backend/internal/store/postgres"
	"github.com/feedlane/feedlane-backend/internal/webhook"
	"github.com/feedlane/feedlane-backend/logger"
	"github.com/feedlane/feedlane-backend/middleware"
	"github.com/feedlane/feedlane-backend/router"
	"github.com/feedlane/feedlane-backend/services"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// @title           Feedlane API
// @version         1.0
// @description     Feedback ingestion and management API.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Project API key as "Bearer <key>"
func main() {
	logger.InitLogger()
	log := logger.GetLogger()
	defer func() {
		_ = logger.Close()
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      string(cfg.Server.Environment),
			Release:          cfg.Server.Version,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			log.Warnw("Sentry initialization failed, continuing without error reporting", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			log.Info("Sentry error reporting enabled")
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	poolConfig, err := config.PostgresPoolConfig(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to build database config: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := pool.Ping(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pingCancel()
	log.Info("Successfully connected to database")

	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(cfg.Database.URL()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Redis is optional and only dialed when a component needs it.
	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient = redis.NewClient(config.RedisOptions(&cfg.Redis))
		if err := config.TestRedisConnection(ctx, redisClient, 5, 2*time.Second); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() {
			_ = redisClient.Close()
		}()
		log.Info("Successfully connected to Redis")
	}

	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	feedbackLimiter, apiLimiter := buildLimiters(cfg, redisClient, window)

	// Webhook delivery runs on the worker pool.
	workerPool := services.NewWorkerPool(cfg.WorkerPool)
	workerPool.Start()

	webhookClient := webhook.NewClient(
		webhook.WithTimeout(time.Duration(cfg.Webhook.TimeoutSeconds)*time.Second),
		webhook.WithUserAgent(cfg.Webhook.UserAgent),
	)
	dispatcher := webhook.NewDispatcher(workerPool, webhookClient, cfg.Webhook.PerHostRate, cfg.Webhook.PerHostBurst)

	// Stores
	projectStore := postgres.NewProjectStore(pool)
	feedbackStore := postgres.NewFeedbackStore(pool)
	replyStore := postgres.NewReplyStore(pool)
	apiKeyStore := postgres.NewAPIKeyStore(pool)

	// Services
	feedbackService := services.NewFeedbackService(projectStore, feedbackStore, dispatcher)
	replyService := services.NewReplyService(feedbackStore, replyStore)
	webhookService := services.NewWebhookService(projectStore, dispatcher)

	var healthRedis redis.Cmdable
	if redisClient != nil {
		healthRedis = redisClient
	}
	healthService := services.NewHealthService(pool, healthRedis, cfg.Server.Version)
	healthService.SetWebhookQueue(workerPool)

	r := router.SetupRouter(router.Dependencies{
		Config:             cfg,
		FeedbackHandler:    handlers.NewFeedbackHandler(feedbackService, cfg.Server.MaxBodyBytes),
		FeedbackAPIHandler: handlers.NewFeedbackAPIHandler(feedbackService, replyService),
		ReplyHandler:       handlers.NewReplyHandler(replyService),
		WebhookHandler:     handlers.NewWebhookHandler(webhookService),
		HealthHandler:      handlers.NewHealthHandler(healthService),
		APIKeyAuth:         middleware.NewAPIKeyAuthenticator(apiKeyStore, time.Duration(cfg.APIKey.CacheTTLSeconds)*time.Second),
		FeedbackLimiter:    feedbackLimiter,
		APILimiter:         apiLimiter,
		Logger:             log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Infow("Starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		srvErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infow("Received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("Server stopped unexpectedly", "error", err)
		}
	}

	shutdownTimeout := time.Duration(cfg.WorkerPool.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting submissions first so no new deliveries are queued.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown failed", "error", err)
	}
	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		log.Warnw("Webhook worker pool did not drain in time", "error", err)
	}

	log.Info("Server exited")
}

// buildLimiters returns the per-IP feedback limiter and the per-key API limiter.
func buildLimiters(cfg *config.Config, redisClient *redis.Client, window time.Duration) (ratelimit.Limiter, ratelimit.Limiter) {
	if cfg.RateLimit.Backend == config.RateLimitBackendRedis && redisClient != nil {
		return ratelimit.NewRedisLimiter(redisClient, "ratelimit:feedback:", cfg.RateLimit.FeedbackRequests, window),
			ratelimit.NewRedisLimiter(redisClient, "ratelimit:api:", cfg.RateLimit.APIRequests, window)
	}

	cleanup := time.Duration(cfg.RateLimit.CleanupIntervalSeconds) * time.Second
	return ratelimit.NewMemoryLimiter(cfg.RateLimit.FeedbackRequests, window, cleanup),
		ratelimit.NewMemoryLimiter(cfg.RateLimit.APIRequests, window, cleanup)
}
