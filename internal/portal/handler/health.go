package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/pkg/portal"
)

// HealthHandler reports repository health.
type HealthHandler struct {
	repo portal.Repository
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(repo portal.Repository) *HealthHandler {
	return &HealthHandler{repo: repo}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := h.repo.Health(c.Request.Context())
	code := http.StatusOK
	if status.Status != portal.HealthStatusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
