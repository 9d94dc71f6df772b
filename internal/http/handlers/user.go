package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-bff/internal/cache"
	"github.com/yungbote/neurobridge-bff/internal/domain/dashboard"
	"github.com/yungbote/neurobridge-bff/internal/http/response"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

type UserHandler struct {
	profile dashboard.Profile
	agg     Aggregator
	gate    *cache.Gate
	log     *logger.Logger
}

func NewUserHandler(log *logger.Logger, profile dashboard.Profile, agg Aggregator, gate *cache.Gate) *UserHandler {
	return &UserHandler{profile: profile, agg: agg, gate: gate, log: log.With("handler", "UserHandler")}
}

// GET /api/user/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	var p userParams
	if err := bindID(c, &p); err != nil {
		response.RespondErr(c, err)
		return
	}
	req := dashboard.Request{Profile: h.profile, Route: dashboard.RouteUser, UserID: p.ID}

	if h.profile == dashboard.ProfileWeb {
		serveCached(c, h.log, h.gate, req, func(ctx context.Context) (dashboard.WebProfile, error) {
			return h.agg.WebUser(ctx, p.ID)
		})
		return
	}
	serveCached(c, h.log, h.gate, req, func(ctx context.Context) (dashboard.MobileProfile, error) {
		return h.agg.MobileUser(ctx, p.ID)
	})
}
