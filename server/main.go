package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"pujasetu/api/routes"
	"pujasetu/internal/notifications"
	"pujasetu/internal/payments"
	"pujasetu/internal/shared/config"
	"pujasetu/internal/shared/database"
	"pujasetu/internal/shared/utils/response"
	"pujasetu/pkg/logger"
	"pujasetu/pkg/ratelimit"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect:", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Rate limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			PaymentRequests: cfg.RateLimit.PaymentRequests,
			RefundRequests:  cfg.RateLimit.RefundRequests,
			AdminRequests:   cfg.RateLimit.AdminRequests,
			HealthRequests:  cfg.RateLimit.HealthRequests,
			WhitelistedIPs:  cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("payment_requests", cfg.RateLimit.PaymentRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Notification producer; the engine runs without it when Kafka is off.
	var notifier notifications.Sender = notifications.NopSender{}
	if cfg.Kafka.Enabled {
		kafkaSender, err := notifications.NewKafkaSender(cfg.Kafka, appLogger)
		if err != nil {
			appLogger.Error("Failed to initialize Kafka producer, continuing without notifications", slog.Any("error", err))
		} else {
			notifier = kafkaSender
			defer func() {
				if err := kafkaSender.Close(); err != nil {
					appLogger.Error("Error closing Kafka producer", slog.Any("error", err))
				}
			}()
			appLogger.Info("Kafka notification producer started",
				slog.String("topic", cfg.Kafka.NotificationTopic))
		}
	}

	// The sandbox processor stands in until a provider account is wired.
	processor := payments.NewSandboxProcessor()

	appRouter := routes.NewRouter(cfg, db, notifier, processor)
	engine := setupEngine(cfg, rateLimiter)
	appRouter.SetupRoutes(engine)

	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()
	appRouter.StartBackgroundJobs(jobCtx)
	defer appRouter.StopBackgroundJobs()
	appLogger.Info("Background sweeps started",
		slog.Duration("release_interval", cfg.Scheduler.ReleaseSweepInterval),
		slog.Duration("placement_interval", cfg.Scheduler.PlacementSweepInterval),
	)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
			slog.Bool("notifications", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupEngine(cfg *config.Config, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	engine.Use(requestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	return engine
}

func requestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(response.ContextKeyRequestID, requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.WithRequestID(requestID).LogHTTPRequest(c, duration)
	}
}
