package cache

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

var (
	ErrNotConnected = errors.New("cache backend not connected")
	ErrCorruptEntry = errors.New("cache entry could not be decoded")
)

// Store is the narrow key-value contract the gate depends on.
type Store interface {
	// Get returns found=false with a nil error on a plain miss.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	SetEx(ctx context.Context, key string, value string, ttl time.Duration) error
	// Connected reports the last known connection state without doing I/O.
	Connected() bool
	Close() error
}

type OpenOptions struct {
	URL             string
	MonitorInterval time.Duration
	Log             *logger.Logger
	Metrics         *observability.Metrics
}

// Open picks a backend from the URL scheme. "off"/"none"/"disabled" (and the
// empty string) return a nil Store; the gate then always bypasses the cache.
func Open(ctx context.Context, opts OpenOptions) (Store, error) {
	raw := strings.TrimSpace(opts.URL)
	switch {
	case raw == "", raw == "off", raw == "none", raw == "disabled":
		return nil, nil
	case strings.HasPrefix(raw, "memory://"):
		return NewMemoryStore(MemoryOptions{}), nil
	case strings.HasPrefix(raw, "redis://"), strings.HasPrefix(raw, "rediss://"):
		rs, err := NewRedisStore(ctx, RedisOptions{
			URL:             raw,
			MonitorInterval: opts.MonitorInterval,
			Log:             opts.Log,
			Metrics:         opts.Metrics,
		})
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unsupported cache url %q", raw)
	}
}
