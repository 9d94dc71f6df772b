package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-bff/internal/domain/dashboard"
	"github.com/yungbote/neurobridge-bff/internal/platform/envutil"
)

const (
	DefaultUserServiceURL    = "http://user-service:3001"
	DefaultOrderServiceURL   = "http://order-service:3002"
	DefaultProductServiceURL = "http://product-service:3003"
	DefaultCacheURL          = "redis://redis:6379"
	DefaultCacheTTL          = 300 * time.Second
)

var defaultPorts = map[dashboard.Profile]string{
	dashboard.ProfileMobile: "4001",
	dashboard.ProfileWeb:    "4002",
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ShutdownTimeout:   15 * time.Second,
		},
		Upstreams: UpstreamsConfig{
			UserURL:    DefaultUserServiceURL,
			OrderURL:   DefaultOrderServiceURL,
			ProductURL: DefaultProductServiceURL,
			Timeout:    10 * time.Second,
		},
		Cache: CacheConfig{
			URL:             DefaultCacheURL,
			TTL:             DefaultCacheTTL,
			MonitorInterval: 5 * time.Second,
		},
	}
}

// Load resolves configuration for one BFF instance. Precedence, lowest first:
// hardcoded defaults, the YAML file (path argument, else BFF_CONFIG_PATH), then
// environment overrides. profile, when non-empty, beats every other source.
func Load(path string, profile string) (*Config, error) {
	cfg := defaultConfig()

	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv("BFF_CONFIG_PATH"))
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if strings.TrimSpace(profile) != "" {
		cfg.Profile = dashboard.Profile(profile)
	}
	p, err := dashboard.ParseProfile(string(cfg.Profile))
	if err != nil {
		return nil, err
	}
	cfg.Profile = p

	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.Profile = dashboard.Profile(envutil.String("BFF_PROFILE", string(cfg.Profile)))

	cfg.Upstreams.UserURL = envutil.String("USER_SERVICE_URL", cfg.Upstreams.UserURL)
	cfg.Upstreams.OrderURL = envutil.String("ORDER_SERVICE_URL", cfg.Upstreams.OrderURL)
	cfg.Upstreams.ProductURL = envutil.String("PRODUCT_SERVICE_URL", cfg.Upstreams.ProductURL)
	cfg.Upstreams.Timeout = envutil.Duration("UPSTREAM_TIMEOUT", cfg.Upstreams.Timeout)

	cfg.Cache.URL = envutil.String("REDIS_URL", cfg.Cache.URL)
	cfg.Cache.SingleFlight = envutil.Bool("CACHE_SINGLE_FLIGHT", cfg.Cache.SingleFlight)

	if port := envutil.String("PORT", ""); port != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if origins := envutil.String("CORS_ALLOW_ORIGINS", ""); origins != "" {
		cfg.CORS.AllowOrigins = splitList(origins)
	}

	cfg.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Addr = envutil.String("METRICS_ADDR", cfg.Metrics.Addr)
	cfg.Tracing.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Tracing.ServiceName)
}

func normalize(cfg *Config) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":" + defaultPorts[cfg.Profile]
	}
	cfg.Upstreams.UserURL = strings.TrimRight(strings.TrimSpace(cfg.Upstreams.UserURL), "/")
	cfg.Upstreams.OrderURL = strings.TrimRight(strings.TrimSpace(cfg.Upstreams.OrderURL), "/")
	cfg.Upstreams.ProductURL = strings.TrimRight(strings.TrimSpace(cfg.Upstreams.ProductURL), "/")
	cfg.Cache.URL = strings.TrimSpace(cfg.Cache.URL)
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if strings.TrimSpace(cfg.Tracing.ServiceName) == "" {
		cfg.Tracing.ServiceName = cfg.Profile.ServiceName()
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and returns a flat, readable error.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Dump renders the resolved configuration as YAML.
func Dump(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
