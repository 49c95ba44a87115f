// Package api implements the HTTP API over the draw store and stats
// engine.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/powerdraw/internal/logger"
)

// Server timeouts.
const (
	ReadHeaderTimeout = 10 * time.Second
)

// SetupRouter creates and configures the gin router with all routes.
func SetupRouter(h *Handlers, log logger.Interface) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	apiGroup := router.Group("/api")
	apiGroup.GET("/draws", h.GetDraws)
	apiGroup.GET("/frequencies", h.GetFrequencies)
	apiGroup.GET("/groups", h.GetGroups)
	apiGroup.GET("/prediction", h.GetPrediction)
	apiGroup.GET("/status", h.GetStatus)

	router.POST("/refresh", h.Refresh)
	router.GET("/debug/scrape", h.DebugScrape)

	return router
}

// NewServer wraps the router in an http.Server with sane timeouts.
func NewServer(address string, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

// loggingMiddleware logs each request with method, path, status and latency.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		log.Info("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
