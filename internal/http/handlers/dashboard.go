package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-bff/internal/cache"
	"github.com/yungbote/neurobridge-bff/internal/domain/dashboard"
	"github.com/yungbote/neurobridge-bff/internal/http/response"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

type DashboardHandler struct {
	profile dashboard.Profile
	agg     Aggregator
	gate    *cache.Gate
	log     *logger.Logger
}

func NewDashboardHandler(log *logger.Logger, profile dashboard.Profile, agg Aggregator, gate *cache.Gate) *DashboardHandler {
	return &DashboardHandler{profile: profile, agg: agg, gate: gate, log: log.With("handler", "DashboardHandler")}
}

// GET /api/dashboard/:userId
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	var p dashboardParams
	if err := bindID(c, &p); err != nil {
		response.RespondErr(c, err)
		return
	}
	req := dashboard.Request{Profile: h.profile, Route: dashboard.RouteDashboard, UserID: p.UserID}

	if h.profile == dashboard.ProfileWeb {
		serveCached(c, h.log, h.gate, req, func(ctx context.Context) (dashboard.WebDashboard, error) {
			return h.agg.WebDashboard(ctx, p.UserID)
		})
		return
	}
	serveCached(c, h.log, h.gate, req, func(ctx context.Context) (dashboard.MobileDashboard, error) {
		return h.agg.MobileDashboard(ctx, p.UserID)
	})
}
