package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/primestrides/sendstack/api/handlers"
	"github.com/primestrides/sendstack/api/middleware"
	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/internal/repository"
	"github.com/primestrides/sendstack/internal/tracing"
	"github.com/primestrides/sendstack/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, cfg *config.Config, s *services.Services, repos *repository.Repositories) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(cfg.SchedulerConfig, s, repos)

	// Health check and status endpoints (no custom context needed)
	r.GET("/health", handlers.HealthCheck)
	r.GET("/status", handlers.Status(s.Pool))

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-SENDSTACK-API-KEY",
		ValidAPIKey: cfg.AppConfig.APIKey,
	})

	// API group with version and custom context
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.CustomContextMiddleware("sendstack")) // Add custom context for all /v1/* endpoints
	api.Use(middleware.TracingMiddleware())                  // Add tracing for all /v1/* endpoints
	{
		// Scheduler endpoints
		scheduler := api.Group("/scheduler")
		{
			scheduler.GET("/status", apiHandlers.Scheduler.GetAllStatus())
			scheduler.GET("/status/:identity", apiHandlers.Scheduler.GetIdentityStatus())
			scheduler.GET("/wait", apiHandlers.Scheduler.GetWaitTime())
			scheduler.GET("/sessions", apiHandlers.Scheduler.GetSessions())
			scheduler.GET("/fetch-size", apiHandlers.Scheduler.GetFetchSize())
		}

		// Identity endpoints
		identities := api.Group("/identities")
		{
			identities.GET("", apiHandlers.Identities.List())
			identities.POST("/:identity/block", apiHandlers.Identities.Block())
			identities.POST("/:identity/cooldown/reset", apiHandlers.Identities.ResetCooldown())
		}
	}
}
