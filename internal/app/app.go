package app

import (
	"context"
	"fmt"

	"github.com/yungbote/neurobridge-bff/internal/config"
	bffhttp "github.com/yungbote/neurobridge-bff/internal/http"
	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

type App struct {
	Log     *logger.Logger
	Cfg     *config.Config
	Metrics *observability.Metrics
	Clients Clients
	Server  *bffhttp.Server

	shutdownOTel func(context.Context) error
	cancel       context.CancelFunc
}

// New wires one BFF process for cfg.Profile. An unreachable cache backend is
// not an error; the process serves uncached until it comes back.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log = log.With("service", cfg.Profile.ServiceName())

	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Tracing.Version,
	})

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.New()
	}

	clients, err := wireClients(ctx, log, cfg, metrics)
	if err != nil {
		_ = shutdownOTel(ctx)
		log.Sync()
		return nil, err
	}

	handlerset, err := wireHandlers(log, cfg, clients, metrics)
	if err != nil {
		clients.Close()
		_ = shutdownOTel(ctx)
		log.Sync()
		return nil, err
	}
	server := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Metrics:      metrics,
		Clients:      clients,
		Server:       server,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Start launches whatever background workers the configuration enables.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if mon, ok := a.Clients.Cache.(monitored); ok {
		mon.StartMonitor(ctx)
	}
	if a.Cfg.Metrics.Enabled && a.Cfg.Metrics.Addr != "" {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
	}
	a.Metrics.StartSLOEvaluator(ctx, a.Log)
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Start(ctx)
	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.shutdownOTel != nil {
		if err := a.shutdownOTel(context.Background()); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
