package http

import (
	"github.com/gin-gonic/gin"

	"github.com/cartscan/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.PerIP > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	}

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("/:barcode", handler.GetProduct)
			products.POST("/batch", handler.GetProductBatch)
			products.GET("/:barcode/food", handler.GetFoodProduct)
			products.GET("/:barcode/retail", handler.GetRetailProduct)
		}

		v1.GET("/search", handler.SearchProducts)
	}

	return router
}
