package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.ngs.io/regrid/internal/pkg/metrics"
	"go.ngs.io/regrid/internal/usecase"
)

// SetupRouter creates and configures the Gin router. An empty allowedOrigins
// allows every origin.
func SetupRouter(resampleUC *usecase.ResampleUseCase, allowedOrigins []string) *gin.Engine {

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(resampleUC)

	// API v1 routes.
	v1 := router.Group("/v1")
	grids := v1.Group("/grids")
	grids.GET("", handler.ListGrids)
	grids.GET("/:domain/:name", handler.GetGrid)
	grids.GET("/:domain/:name/point", handler.FindPoint)

	v1.POST("/resample", handler.Resample)
	v1.GET("/methods", handler.ListMethods)

	// Health check and metrics.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", metrics.Handler())

	return router
}
