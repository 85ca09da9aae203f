package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/war-games/go-engine/internal/service"
)

// #region router
// NewRouter registers every route on a fresh gin engine.
func NewRouter(svc *service.Service, logger *zap.Logger) *gin.Engine {
	h := NewHandlers(svc, logger)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(svc.Metrics().Handler()))

	api := router.Group("/api")
	{
		api.POST("/intervene", h.Intervene)
		api.POST("/propagate", h.Propagate)
		api.GET("/world", h.World)
		api.GET("/goals/scores", h.Scores)

		versions := api.Group("/versions")
		versions.GET("", h.Versions)
		versions.POST("/:id/rollback", h.Rollback)
	}
	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// #endregion router
