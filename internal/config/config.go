package config

import (
	"time"

	"github.com/yungbote/neurobridge-bff/internal/domain/dashboard"
)

type HTTPConfig struct {
	Addr              string        `yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"gte=0"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// UpstreamsConfig holds the base URLs of the domain services the BFF fans out to.
type UpstreamsConfig struct {
	UserURL    string `yaml:"user_url" validate:"required,url"`
	OrderURL   string `yaml:"order_url" validate:"required,url"`
	ProductURL string `yaml:"product_url" validate:"required,url"`

	// Timeout bounds a single upstream call at the transport level. Zero disables it.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

type CacheConfig struct {
	// URL selects the backend: redis://..., memory://, or "off".
	URL string        `yaml:"url" validate:"required"`
	TTL time.Duration `yaml:"ttl" validate:"gt=0"`

	// SingleFlight collapses concurrent misses for the same key into one producer call.
	SingleFlight bool `yaml:"single_flight"`

	// MonitorInterval is how often the backend connection state is re-checked.
	MonitorInterval time.Duration `yaml:"monitor_interval" validate:"gt=0"`
}

type CORSConfig struct {
	// Empty means every origin is allowed.
	AllowOrigins []string `yaml:"allow_origins"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// Addr serves /metrics on a dedicated listener; empty mounts it on the main router.
	Addr string `yaml:"addr"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
}

type Config struct {
	Env       string            `yaml:"env"`
	Profile   dashboard.Profile `yaml:"profile" validate:"required,oneof=mobile web"`
	HTTP      HTTPConfig        `yaml:"http"`
	Upstreams UpstreamsConfig   `yaml:"upstreams"`
	Cache     CacheConfig       `yaml:"cache"`
	CORS      CORSConfig        `yaml:"cors"`
	Metrics   MetricsConfig     `yaml:"metrics"`
	Tracing   TracingConfig     `yaml:"tracing"`
}
