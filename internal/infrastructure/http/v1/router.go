// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stocktally/internal/domain/auth"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/domain/counting"
	"stocktally/internal/infrastructure/http/v1/handlers"
	"stocktally/internal/infrastructure/http/v1/middleware"
	"stocktally/internal/infrastructure/storage/postgres"
	"stocktally/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks).
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for token validation.
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints.
	AuthService *auth.Service

	// CountingService for counting event endpoints.
	CountingService *counting.Service

	// ScheduleService for counting schedule endpoints.
	ScheduleService *counting.ScheduleService

	// StockService for stock catalog endpoints.
	StockService *stockitem.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters).
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	// Health endpoints (no auth required).
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

		authPublic := apiV1.Group("/auth")
		authProtected := apiV1.Group("/auth")
		authProtected.Use(middleware.Auth(cfg.JWTValidator))
		authHandler.RegisterRoutes(authPublic, authProtected)

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		handlers.NewCountingHandler(base, cfg.CountingService).RegisterRoutes(protected)
		handlers.NewScheduleHandler(base, cfg.ScheduleService).RegisterRoutes(protected)
		handlers.NewStockHandler(base, cfg.StockService).RegisterRoutes(protected)
	}

	return router
}
