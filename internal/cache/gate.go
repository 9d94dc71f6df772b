package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

const DefaultTTL = 300 * time.Second

type GateOptions struct {
	Store Store
	TTL   time.Duration

	// SingleFlight makes concurrent misses for one key share a single producer
	// call. Off by default: producers are idempotent reads, so racing misses
	// only cost duplicate upstream traffic.
	SingleFlight bool

	Log     *logger.Logger
	Metrics *observability.Metrics
}

// Gate implements cache-aside over a Store. A cache malfunction never fails a
// request whose producer succeeds.
type Gate struct {
	store        Store
	ttl          time.Duration
	singleFlight bool
	group        singleflight.Group
	log          *logger.Logger
	metrics      *observability.Metrics
}

func NewGate(opts GateOptions) *Gate {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Gate{
		store:        opts.Store,
		ttl:          ttl,
		singleFlight: opts.SingleFlight,
		log:          log.With("component", "cache_gate"),
		metrics:      opts.Metrics,
	}
}

// Connected reports whether cache operations will be attempted.
func (g *Gate) Connected() bool {
	return g != nil && g.store != nil && g.store.Connected()
}

func (g *Gate) TTL() time.Duration { return g.ttl }

// Producer computes the value on a miss.
type Producer[T any] func(ctx context.Context) (T, error)

// GetOrCompute returns the cached value for key, or runs producer and stores
// its JSON serialization for the gate TTL. Producer errors are returned as-is;
// cache errors are logged and the value is served uncached.
func GetOrCompute[T any](ctx context.Context, g *Gate, key string, producer Producer[T]) (T, error) {
	ctx, span := observability.Tracer().Start(ctx, "cache.get_or_compute",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if !g.Connected() {
		g.record(key, observability.CacheBypass)
		span.SetAttributes(attribute.String("cache.outcome", observability.CacheBypass))
		return producer(ctx)
	}

	raw, found, err := g.store.Get(ctx, key)
	if err != nil {
		g.cacheError(ctx, key, "get", err)
		span.SetAttributes(attribute.String("cache.outcome", observability.CacheError))
		return producer(ctx)
	}
	if found {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			g.cacheError(ctx, key, "decode", fmt.Errorf("%w: %v", ErrCorruptEntry, err))
			span.SetAttributes(attribute.String("cache.outcome", observability.CacheError))
			return producer(ctx)
		}
		g.record(key, observability.CacheHit)
		g.log.Debug("cache hit", append([]interface{}{"key", key}, ctxutil.LogFields(ctx)...)...)
		span.SetAttributes(attribute.String("cache.outcome", observability.CacheHit))
		return v, nil
	}

	g.record(key, observability.CacheMiss)
	g.log.Debug("cache miss", append([]interface{}{"key", key}, ctxutil.LogFields(ctx)...)...)
	span.SetAttributes(attribute.String("cache.outcome", observability.CacheMiss))

	v, err := produce(ctx, g, key, producer)
	if err != nil {
		var zero T
		return zero, err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		g.cacheError(ctx, key, "encode", err)
		return v, nil
	}
	if err := g.store.SetEx(ctx, key, string(payload), g.ttl); err != nil {
		g.cacheError(ctx, key, "set", err)
		return v, nil
	}
	g.record(key, observability.CacheStored)
	return v, nil
}

func produce[T any](ctx context.Context, g *Gate, key string, producer Producer[T]) (T, error) {
	if !g.singleFlight {
		return producer(ctx)
	}
	// The shared call must outlive any single waiter's cancellation.
	shared := context.WithoutCancel(ctx)
	res, err, dup := g.group.Do(key, func() (interface{}, error) {
		return producer(shared)
	})
	if dup {
		g.record(key, observability.CacheDeduped)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

func (g *Gate) cacheError(ctx context.Context, key, op string, err error) {
	g.record(key, observability.CacheError)
	fields := append([]interface{}{"key", key, "op", op, "error", err}, ctxutil.LogFields(ctx)...)
	g.log.Warn("cache error, serving uncached", fields...)
}

func (g *Gate) record(key, outcome string) {
	if g == nil {
		return
	}
	g.metrics.IncCache(RouteOf(key), outcome)
}

// RouteOf extracts the route segment of a {profile}:{route}:{id} key.
func RouteOf(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[1] == "" {
		return "other"
	}
	return parts[1]
}
