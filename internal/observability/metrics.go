package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

// Cache outcomes recorded by the cache-aside gate.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheError   = "error"
	CacheBypass  = "bypass"
	CacheStored  = "stored"
	CacheDeduped = "deduped"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	upstreamRequests *CounterVec
	upstreamLatency  *HistogramVec

	cacheOps     *CounterVec
	enrichFailed *CounterVec

	redisUp   *Gauge
	redisPing *Gauge

	// Unlabelled totals feeding the SLO evaluator.
	apiReqTotal       *CounterVec
	apiReqError       *CounterVec
	apiReqGood        *CounterVec
	upstreamReqTotal  *CounterVec
	upstreamReqError  *CounterVec
	apiLatencyGoodMax atomic.Int64

	sloCompliance *GaugeVec
	sloBudget     *GaugeVec
	sloBurn       *GaugeVec
}

// DefaultLatencyThreshold is the slowest request still counted as good by
// the api_latency SLO.
const DefaultLatencyThreshold = 500 * time.Millisecond

// New builds an empty registry. A nil *Metrics is valid and records nothing.
func New() *Metrics {
	m := &Metrics{
		apiRequests: NewCounterVec("bff_http_requests_total", "HTTP requests by method, route and status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"bff_http_request_duration_seconds",
			"HTTP request latency in seconds.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		),
		apiInflight:      NewGauge("bff_http_inflight_requests", "In-flight HTTP requests."),
		upstreamRequests: NewCounterVec("bff_upstream_requests_total", "Upstream calls by service and status (0 = network failure).", []string{"service", "status"}),
		upstreamLatency: NewHistogramVec(
			"bff_upstream_request_duration_seconds",
			"Upstream call latency in seconds.",
			[]string{"service"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		),
		cacheOps:     NewCounterVec("bff_cache_operations_total", "Cache-aside outcomes.", []string{"route", "outcome"}),
		enrichFailed: NewCounterVec("bff_enrichment_fallbacks_total", "Per-item enrichment failures absorbed with a placeholder.", []string{"reason"}),
		redisUp:      NewGauge("bff_redis_up", "Cache backend connectivity (1=up, 0=down)."),
		redisPing:    NewGauge("bff_redis_ping_seconds", "Cache backend ping latency in seconds."),

		apiReqTotal:       NewCounterVec("bff_slo_api_requests_total", "Requests considered by the API SLOs.", nil),
		apiReqError:       NewCounterVec("bff_slo_api_errors_total", "Requests answered with a 5xx.", nil),
		apiReqGood:        NewCounterVec("bff_slo_api_fast_requests_total", "Requests faster than the latency threshold.", nil),
		upstreamReqTotal:  NewCounterVec("bff_slo_upstream_requests_total", "Upstream calls considered by the upstream SLO.", nil),
		upstreamReqError:  NewCounterVec("bff_slo_upstream_errors_total", "Upstream calls that were unreachable or returned a 5xx.", nil),

		sloCompliance: NewGaugeVec("bff_slo_compliance", "Observed SLI over the SLO window.", []string{"slo", "window"}),
		sloBudget:     NewGaugeVec("bff_slo_error_budget_remaining", "Fraction of the error budget left.", []string{"slo", "window"}),
		sloBurn:       NewGaugeVec("bff_slo_burn_rate", "Error budget burn rate.", []string{"slo", "window"}),
	}
	m.apiLatencyGoodMax.Store(int64(DefaultLatencyThreshold))
	return m
}

// SetLatencyThreshold changes the api_latency SLO cut-off.
func (m *Metrics) SetLatencyThreshold(d time.Duration) {
	if m == nil || d <= 0 {
		return
	}
	m.apiLatencyGoodMax.Store(int64(d))
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)

	m.apiReqTotal.Inc()
	if code, err := strconv.Atoi(status); err == nil && code >= 500 {
		m.apiReqError.Inc()
	}
	if dur <= time.Duration(m.apiLatencyGoodMax.Load()) {
		m.apiReqGood.Inc()
	}
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveUpstream(service string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.Inc(service, strconv.Itoa(status))
	m.upstreamLatency.Observe(dur.Seconds(), service)

	m.upstreamReqTotal.Inc()
	if status == 0 || status >= 500 {
		m.upstreamReqError.Inc()
	}
}

func (m *Metrics) IncCache(route, outcome string) {
	if m == nil {
		return
	}
	m.cacheOps.Inc(route, outcome)
}

// CacheCount returns the number of recorded outcomes for a route.
func (m *Metrics) CacheCount(route, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.cacheOps.Value(route, outcome)
}

func (m *Metrics) IncEnrichmentFallback(reason string) {
	if m == nil {
		return
	}
	m.enrichFailed.Inc(reason)
}

func (m *Metrics) EnrichmentFallbackCount(reason string) float64 {
	if m == nil {
		return 0
	}
	return m.enrichFailed.Value(reason)
}

func (m *Metrics) SetCacheBackendUp(up bool, ping time.Duration) {
	if m == nil {
		return
	}
	if !up {
		m.redisUp.Set(0)
		return
	}
	m.redisUp.Set(1)
	m.redisPing.Set(ping.Seconds())
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type prometheusWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, metric := range []prometheusWriter{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.upstreamRequests,
		m.upstreamLatency,
		m.cacheOps,
		m.enrichFailed,
		m.redisUp,
		m.redisPing,
		m.sloCompliance,
		m.sloBudget,
		m.sloBurn,
	} {
		if err := metric.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}
