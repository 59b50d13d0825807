package api

import (
	"time"

	"artbench/internal"

	"github.com/gin-gonic/gin"
)

// NewRouter registers every route on a fresh engine.
func NewRouter(h *Handler, logger *internal.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", h.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/describe", h.Describe)
		v1.POST("/ttest", h.TTest)
		v1.POST("/anova", h.ANOVA)
		v1.POST("/correct", h.Correct)
		v1.POST("/batches/:batchID/analyze", h.AnalyzeBatch)
	}

	return router
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	logger = logger.With("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
