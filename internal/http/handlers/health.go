package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-bff/internal/cache"
	"github.com/yungbote/neurobridge-bff/internal/domain/dashboard"
)

type HealthHandler struct {
	profile dashboard.Profile
	gate    *cache.Gate
}

func NewHealthHandler(profile dashboard.Profile, gate *cache.Gate) *HealthHandler {
	return &HealthHandler{profile: profile, gate: gate}
}

type healthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	CacheConnected bool   `json:"cacheConnected"`
	Redis          string `json:"redis"`
}

// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	connected := h.gate.Connected()
	redis := "disconnected"
	if connected {
		redis = "connected"
	}
	c.JSON(http.StatusOK, healthResponse{
		Status:         "ok",
		Service:        h.profile.ServiceName(),
		CacheConnected: connected,
		Redis:          redis,
	})
}
