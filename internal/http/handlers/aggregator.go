package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-bff/internal/cache"
	"github.com/yungbote/neurobridge-bff/internal/domain/dashboard"
	"github.com/yungbote/neurobridge-bff/internal/http/response"
	"github.com/yungbote/neurobridge-bff/internal/platform/apierr"
	"github.com/yungbote/neurobridge-bff/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

// Aggregator is the per-profile composition the handlers serve.
type Aggregator interface {
	MobileDashboard(ctx context.Context, userID int) (dashboard.MobileDashboard, error)
	WebDashboard(ctx context.Context, userID int) (dashboard.WebDashboard, error)
	MobileUser(ctx context.Context, userID int) (dashboard.MobileProfile, error)
	WebUser(ctx context.Context, userID int) (dashboard.WebProfile, error)
}

type dashboardParams struct {
	UserID int `uri:"userId" binding:"required,min=1"`
}

type userParams struct {
	ID int `uri:"id" binding:"required,min=1"`
}

func bindID(c *gin.Context, dst any) error {
	if err := c.ShouldBindUri(dst); err != nil {
		return apierr.Validation("invalid_user_id", "Invalid user id")
	}
	return nil
}

// serveCached runs produce behind the cache gate and writes the result.
func serveCached[T any](c *gin.Context, log *logger.Logger, gate *cache.Gate, req dashboard.Request, produce cache.Producer[T]) {
	ctx := c.Request.Context()
	v, err := cache.GetOrCompute(ctx, gate, req.CacheKey(), produce)
	if err != nil {
		_ = c.Error(err)
		fields := append([]interface{}{"profile", req.Profile, "route", req.Route, "user_id", req.UserID, "error", err},
			ctxutil.LogFields(ctx)...)
		log.Error("aggregation failed", fields...)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, v)
}
