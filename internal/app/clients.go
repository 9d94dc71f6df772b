package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yungbote/neurobridge-bff/internal/cache"
	"github.com/yungbote/neurobridge-bff/internal/config"
	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
	"github.com/yungbote/neurobridge-bff/internal/upstream"
)

type Clients struct {
	// HTTP is the pooled client shared by every upstream service.
	HTTP      *http.Client
	Upstreams upstream.Services
	// Cache is nil when caching is disabled.
	Cache cache.Store
}

type monitored interface {
	StartMonitor(ctx context.Context)
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	hc := upstream.DefaultHTTPClient()
	svcs, err := upstream.NewServices(upstream.ServicesConfig{
		UserURL:    cfg.Upstreams.UserURL,
		OrderURL:   cfg.Upstreams.OrderURL,
		ProductURL: cfg.Upstreams.ProductURL,
		Options: upstream.Options{
			HTTPClient: hc,
			Timeout:    cfg.Upstreams.Timeout,
			Log:        log,
			Metrics:    metrics,
		},
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init upstream clients: %w", err)
	}

	store, err := cache.Open(ctx, cache.OpenOptions{
		URL:             cfg.Cache.URL,
		MonitorInterval: cfg.Cache.MonitorInterval,
		Log:             log,
		Metrics:         metrics,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init cache: %w", err)
	}
	if store == nil {
		log.Info("cache disabled", "url", cfg.Cache.URL)
	}

	return Clients{HTTP: hc, Upstreams: svcs, Cache: store}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.HTTP != nil {
		c.HTTP.CloseIdleConnections()
	}
}
