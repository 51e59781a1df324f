package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/visualmatch/client/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.MaxMultipartMemory = maxUploadBytes

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", handler.Metrics)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/state", handler.GetState)

		candidate := v1.Group("/candidate")
		{
			candidate.POST("", handler.SelectFromPicker)
			candidate.POST("/drop", handler.SelectFromDrop)
			candidate.DELETE("", handler.ClearSelection)
		}

		drag := v1.Group("/drag")
		{
			drag.POST("/enter", handler.DragEnter)
			drag.POST("/leave", handler.DragLeave)
		}

		v1.POST("/search", handler.Search)
		v1.GET("/preview/:handle", handler.GetPreview)
	}

	return router
}
