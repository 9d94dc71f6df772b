package app

import (
	"fmt"

	"github.com/yungbote/neurobridge-bff/internal/aggregate"
	"github.com/yungbote/neurobridge-bff/internal/cache"
	"github.com/yungbote/neurobridge-bff/internal/config"
	httpH "github.com/yungbote/neurobridge-bff/internal/http/handlers"
	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Dashboard *httpH.DashboardHandler
	User      *httpH.UserHandler
}

func wireHandlers(log *logger.Logger, cfg *config.Config, clients Clients, metrics *observability.Metrics) (Handlers, error) {
	log.Info("Wiring handlers...")

	agg, err := aggregate.New(aggregate.Options{Services: clients.Upstreams, Log: log, Metrics: metrics})
	if err != nil {
		return Handlers{}, fmt.Errorf("init aggregator: %w", err)
	}
	gate := cache.NewGate(cache.GateOptions{
		Store:        clients.Cache,
		TTL:          cfg.Cache.TTL,
		SingleFlight: cfg.Cache.SingleFlight,
		Log:          log,
		Metrics:      metrics,
	})

	return Handlers{
		Health:    httpH.NewHealthHandler(cfg.Profile, gate),
		Dashboard: httpH.NewDashboardHandler(log, cfg.Profile, agg, gate),
		User:      httpH.NewUserHandler(log, cfg.Profile, agg, gate),
	}, nil
}
