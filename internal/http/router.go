package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/neurobridge-bff/internal/domain/dashboard"
	httpH "github.com/yungbote/neurobridge-bff/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-bff/internal/http/middleware"
	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

type RouterConfig struct {
	Profile dashboard.Profile
	Log     *logger.Logger
	Metrics *observability.Metrics

	// ExposeMetrics serves /metrics on the main listener.
	ExposeMetrics bool
	CORSOrigins   []string
	// TracingService names server spans; empty disables otelgin.
	TracingService string

	DashboardHandler *httpH.DashboardHandler
	UserHandler      *httpH.UserHandler
	HealthHandler    *httpH.HealthHandler
}

// NewRouter builds the edge engine. Routes are matched by gin's radix tree,
// so a static segment always beats a parameter regardless of registration
// order.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(httpMW.Recovery(cfg.Log))
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}
	if cfg.ExposeMetrics && cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if cfg.DashboardHandler != nil {
			api.GET("/dashboard/:userId", cfg.DashboardHandler.GetDashboard)
		}
		if cfg.UserHandler != nil {
			api.GET("/user/:id", cfg.UserHandler.GetUser)
		}
	}

	return r
}
