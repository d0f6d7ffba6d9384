package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/medloader/internal/api/handler"
	"github.com/timmy/medloader/internal/api/middleware"
	"github.com/timmy/medloader/internal/config"
	"github.com/timmy/medloader/internal/service"
	"github.com/timmy/medloader/internal/store"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	bulkService *service.BulkService,
	batches *store.BatchStore,
	cfg *config.Config,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	bulkHandler := handler.NewBulkHandler(bulkService, batches)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.POST("/hospitals/bulk", bulkHandler.Upload)
		v1.GET("/hospitals/bulk/:batch_id", bulkHandler.Status)
		v1.POST("/hospitals/bulk/:batch_id/resume", bulkHandler.Resume)
	}

	return r
}
