package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts the proxy routes. The suggest endpoint is also served
// without the /api prefix for older extension builds.
func Register(router *gin.Engine, h *Handlers, metrics gin.HandlerFunc) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	if metrics != nil {
		router.GET("/metrics", metrics)
	}

	api := router.Group("/api")
	api.GET("/health", h.APIHealth)
	api.POST("/ai/suggest", h.Suggest)

	router.POST("/ai/suggest", h.Suggest)
	router.NoRoute(h.NotFound)
}
