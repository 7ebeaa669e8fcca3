package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go.ngs.io/harmonize/internal/config"
	"go.ngs.io/harmonize/internal/observability"
	"go.ngs.io/harmonize/internal/usecase"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(regridUC *usecase.RegridUseCase, cfg config.ServerConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware(logger))
	router.Use(MetricsMiddleware())

	// Setup CORS middleware.
	// Default to allow all origins if none are configured.
	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowHeaders(RequestIDHeader)
	corsConfig.AddExposeHeaders(RequestIDHeader)
	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(regridUC, cfg.MaxBodyBytes)

	var limiter *rate.Limiter
	if cfg.RegridRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RegridRateLimit), cfg.RegridBurst)
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/methods", handler.ListMethods)
	v1.POST("/regrid", RateLimitMiddleware(limiter), handler.Regrid)

	// Health check.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	return router
}
