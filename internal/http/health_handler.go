package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CacheStats expone contadores de la cache de tokens para monitoreo.
type CacheStats interface {
	Stats(ctx context.Context) map[string]any
}

// HealthHandler responde el liveness check, exento de rate limiting.
type HealthHandler struct {
	cacheStats CacheStats
}

func NewHealthHandler(cacheStats CacheStats) *HealthHandler {
	return &HealthHandler{cacheStats: cacheStats}
}

// Health maneja GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.cacheStats != nil {
		resp["token_cache"] = h.cacheStats.Stats(c.Request.Context())
	}
	c.JSON(http.StatusOK, resp)
}
