// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pujasetu/internal/bookings"
	"pujasetu/internal/cancellation"
	"pujasetu/internal/escrow"
	"pujasetu/internal/notifications"
	"pujasetu/internal/payments"
	"pujasetu/internal/placements"
	"pujasetu/internal/shared/config"
	"pujasetu/internal/shared/database"
	"pujasetu/pkg/cache"
	"pujasetu/pkg/logger"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	notifier  notifications.Sender
	processor payments.Processor
	log       *logger.Logger

	paymentService   payments.Service
	placementService placements.Service
	escrowRepo       escrow.Repository

	releaseSweeper   *payments.ReleaseSweeper
	placementSweeper *placements.Sweeper
}

// NewRouter creates a new router instance. The notification sender and the
// payment processor are injected so main can choose the real collaborators
// or local stand-ins.
func NewRouter(cfg *config.Config, db *database.DB, notifier notifications.Sender, processor payments.Processor) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		notifier:  notifier,
		processor: processor,
		log:       logger.GetDefault(),
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupBookingRoutes(api)
		r.setupCancellationRoutes(api)
		r.setupPaymentRoutes(api)
		r.setupPlacementRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "pujasetu-payments",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "pujasetu-payments",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupBookingRoutes configures booking lifecycle routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo)
	bookingController := bookings.NewController(bookingService)

	bookings.SetupBookingRoutes(rg, bookingController)
}

// setupCancellationRoutes configures cancellation policy routes
func (r *Router) setupCancellationRoutes(rg *gin.RouterGroup) {
	policyRepo := cancellation.NewRepository(r.db.GetPostgreSQL())
	policyService := cancellation.NewService(policyRepo)
	policyController := cancellation.NewController(policyService)

	cancellation.SetupCancellationRoutes(rg, policyController)
}

// setupPaymentRoutes configures the payment orchestrator routes
func (r *Router) setupPaymentRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo)

	policyRepo := cancellation.NewRepository(r.db.GetPostgreSQL())
	policyService := cancellation.NewService(policyRepo)

	r.escrowRepo = escrow.NewRepository(r.db.GetPostgreSQL())
	ledger := escrow.NewLedger(r.escrowRepo)

	cacheService := cache.NewService(r.db.GetRedisClient())
	idempotency := payments.NewIdempotencyStore(cacheService, r.config.Redis.IdempotencyTTL)

	r.paymentService = payments.NewService(
		bookingService,
		policyService,
		r.escrowRepo,
		ledger,
		r.processor,
		idempotency,
		r.notifier,
		r.config,
		r.log,
	)
	paymentController := payments.NewController(r.paymentService)

	payments.SetupPaymentRoutes(rg, paymentController)
}

// setupPlacementRoutes configures premium placement routes
func (r *Router) setupPlacementRoutes(rg *gin.RouterGroup) {
	placementRepo := placements.NewRepository(r.db.GetPostgreSQL())
	r.placementService = placements.NewService(placementRepo, r.notifier, r.log)
	placementController := placements.NewController(r.placementService)

	placements.SetupPlacementRoutes(rg, placementController)
}

// StartBackgroundJobs launches the escrow release sweep and the placement
// expiry/reminder sweep. Must be called after SetupRoutes so the services
// exist.
func (r *Router) StartBackgroundJobs(ctx context.Context) {
	redisClient := r.db.GetRedisClient()

	releaseLock := cache.NewJobLock(redisClient, "pujasetu:jobs:escrow-release", r.config.Redis.JobLockTTL)
	r.releaseSweeper = payments.NewReleaseSweeper(
		r.paymentService,
		r.escrowRepo,
		releaseLock,
		r.config.Scheduler.ReleaseSweepInterval,
		r.config.Scheduler.SweepBatchSize,
		r.log,
	)
	r.releaseSweeper.Start(ctx)

	placementLock := cache.NewJobLock(redisClient, "pujasetu:jobs:placement-sweep", r.config.Redis.JobLockTTL)
	r.placementSweeper = placements.NewSweeper(
		r.placementService,
		placementLock,
		r.config.Scheduler.PlacementSweepInterval,
		r.config.Scheduler.ReminderWindow,
		r.config.Scheduler.SweepBatchSize,
		r.log,
	)
	r.placementSweeper.Start(ctx)
}

// StopBackgroundJobs stops the sweeps, waiting for in-flight runs.
func (r *Router) StopBackgroundJobs() {
	if r.releaseSweeper != nil {
		r.releaseSweeper.Stop()
	}
	if r.placementSweeper != nil {
		r.placementSweeper.Stop()
	}
}
