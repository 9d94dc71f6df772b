package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-bff/internal/config"
	bffhttp "github.com/yungbote/neurobridge-bff/internal/http"
	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg *config.Config, handlers Handlers, metrics *observability.Metrics) *bffhttp.Server {
	switch cfg.Env {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	}
	tracingService := ""
	if cfg.Tracing.Enabled {
		tracingService = cfg.Tracing.ServiceName
	}
	return bffhttp.NewServer(log, bffhttp.RouterConfig{
		Profile:          cfg.Profile,
		Log:              log,
		Metrics:          metrics,
		ExposeMetrics:    cfg.Metrics.Enabled && cfg.Metrics.Addr == "",
		CORSOrigins:      cfg.CORS.AllowOrigins,
		TracingService:   tracingService,
		DashboardHandler: handlers.Dashboard,
		UserHandler:      handlers.User,
		HealthHandler:    handlers.Health,
	}, bffhttp.ServerOptions{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout,
	})
}
