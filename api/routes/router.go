// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"slotbook/docs"
	"slotbook/internal/bookings"
	"slotbook/internal/docstore"
	"slotbook/internal/reconciliation"
	"slotbook/internal/shared/config"
	"slotbook/internal/venues"
	"slotbook/pkg/cache"
	"slotbook/pkg/logger"
	"slotbook/pkg/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// HealthChecker reports whether backing stores are reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services is everything the HTTP layer dispatches to
type Services struct {
	Venues         venues.Service
	Bookings       bookings.Service
	Reconciliation reconciliation.Service
}

// NewServices wires the domain services over one store
func NewServices(cfg *config.Config, store docstore.Store, cacheService cache.Service, notifier bookings.Notifier, log *logger.Logger) *Services {
	retrier := docstore.Retrier{
		MaxAttempts: cfg.Engine.MaxAttempts,
		Backoff:     cfg.Engine.RetryDelay,
	}

	venueService := venues.NewService(store, cacheService, retrier, log)
	return &Services{
		Venues: venueService,
		Bookings: bookings.NewService(store, notifier, venueService, log, bookings.Options{
			Retrier:   retrier,
			TokenCost: cfg.Engine.TokenCost,
		}),
		Reconciliation: reconciliation.NewService(store, venueService, cacheService, retrier, log),
	}
}

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	health   HealthChecker
	services *Services
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, health HealthChecker, services *Services) *Router {
	return &Router{
		config:   cfg,
		health:   health,
		services: services,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	engine.GET("/metrics", metrics.Handler())

	docs.SwaggerInfo.BasePath = r.config.GetAPIBasePath()
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		venues.SetupVenueRoutes(api, venues.NewController(r.services.Venues))
		bookings.SetupBookingRoutes(api, bookings.NewController(r.services.Bookings))
		reconciliation.SetupReconciliationRoutes(api, reconciliation.NewController(r.services.Reconciliation))
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if r.health != nil {
			if err := r.health.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "unhealthy",
					"error":     err.Error(),
					"timestamp": time.Now(),
					"service":   "slotbook",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "slotbook",
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
