package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/neurobridge-bff/internal/platform/envutil"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

const (
	SLOAPIAvailability  = "api_availability"
	SLOAPILatency       = "api_latency"
	SLOUpstreamSuccess  = "upstream_success"
	sloAlertContentType = "application/json"
)

type rollingSum struct {
	values []float64
	idx    int
	total  float64
}

func newRollingSum(size int) *rollingSum {
	if size < 1 {
		size = 1
	}
	return &rollingSum{values: make([]float64, size)}
}

func (r *rollingSum) add(v float64) {
	r.total += v - r.values[r.idx]
	r.values[r.idx] = v
	r.idx++
	if r.idx >= len(r.values) {
		r.idx = 0
	}
}

// SLOEvaluator turns the raw request counters into rolling-window SLIs,
// error budgets and burn rates, and optionally posts burn alerts to a webhook.
type SLOEvaluator struct {
	metrics *Metrics
	log     *logger.Logger
	client  *http.Client

	interval    time.Duration
	windowLabel string

	apiAvailTarget   float64
	apiLatencyTarget float64
	upstreamTarget   float64

	apiTotal      *rollingSum
	apiError      *rollingSum
	apiGood       *rollingSum
	upstreamTotal *rollingSum
	upstreamError *rollingSum

	prevAPITotal      float64
	prevAPIError      float64
	prevAPIGood       float64
	prevUpstreamTotal float64
	prevUpstreamError float64

	alertWebhook     string
	alertOwner       string
	alertRunbook     string
	alertMinInterval time.Duration
	alertBurnWarn    float64
	alertBurnCrit    float64

	alertMu    sync.Mutex
	lastAlerts map[string]time.Time
}

// StartSLOEvaluator runs the evaluator until ctx is done. It is a no-op
// unless SLO_ENABLED is set.
func (m *Metrics) StartSLOEvaluator(ctx context.Context, log *logger.Logger) {
	if m == nil || !envutil.Bool("SLO_ENABLED", false) {
		return
	}
	eval := NewSLOEvaluator(m, log)
	go eval.run(ctx)
	if log != nil {
		log.Info("SLO evaluator started", "window", eval.windowLabel, "interval", eval.interval.String())
	}
}

// NewSLOEvaluator reads its targets and window from SLO_* environment variables.
func NewSLOEvaluator(m *Metrics, log *logger.Logger) *SLOEvaluator {
	interval := envutil.Duration("SLO_EVAL_INTERVAL", time.Minute)
	if interval <= 0 {
		interval = time.Minute
	}
	window := envutil.Duration("SLO_WINDOW", 24*time.Hour)
	if window < interval {
		window = interval
	}
	size := int(window / interval)

	m.SetLatencyThreshold(envutil.Duration("SLO_API_LATENCY_THRESHOLD", DefaultLatencyThreshold))

	return &SLOEvaluator{
		metrics:          m,
		log:              log,
		client:           &http.Client{Timeout: 5 * time.Second},
		interval:         interval,
		windowLabel:      formatWindowLabel(window),
		apiAvailTarget:   clamp01(parseFloat("SLO_API_AVAIL_TARGET", 0.995)),
		apiLatencyTarget: clamp01(parseFloat("SLO_API_LATENCY_TARGET", 0.95)),
		upstreamTarget:   clamp01(parseFloat("SLO_UPSTREAM_SUCCESS_TARGET", 0.99)),
		apiTotal:         newRollingSum(size),
		apiError:         newRollingSum(size),
		apiGood:          newRollingSum(size),
		upstreamTotal:    newRollingSum(size),
		upstreamError:    newRollingSum(size),
		alertWebhook:     envutil.String("SLO_ALERT_WEBHOOK_URL", ""),
		alertOwner:       envutil.String("SLO_ALERT_OWNER", ""),
		alertRunbook:     envutil.String("SLO_ALERT_RUNBOOK_URL", ""),
		alertMinInterval: envutil.Duration("SLO_ALERT_MIN_INTERVAL", 15*time.Minute),
		alertBurnWarn:    parseFloat("SLO_ALERT_BURN_RATE_WARN", 2),
		alertBurnCrit:    parseFloat("SLO_ALERT_BURN_RATE_CRIT", 10),
		lastAlerts:       map[string]time.Time{},
	}
}

func (e *SLOEvaluator) run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Evaluate()
		}
	}
}

// Evaluate folds the counter deltas since the last call into the window and
// publishes the SLO gauges.
func (e *SLOEvaluator) Evaluate() {
	if e.metrics == nil {
		return
	}
	apiTotal := e.metrics.apiReqTotal.Value()
	apiError := e.metrics.apiReqError.Value()
	apiGood := e.metrics.apiReqGood.Value()
	upstreamTotal := e.metrics.upstreamReqTotal.Value()
	upstreamError := e.metrics.upstreamReqError.Value()

	e.apiTotal.add(delta(apiTotal, e.prevAPITotal))
	e.apiError.add(delta(apiError, e.prevAPIError))
	e.apiGood.add(delta(apiGood, e.prevAPIGood))
	e.upstreamTotal.add(delta(upstreamTotal, e.prevUpstreamTotal))
	e.upstreamError.add(delta(upstreamError, e.prevUpstreamError))

	e.prevAPITotal = apiTotal
	e.prevAPIError = apiError
	e.prevAPIGood = apiGood
	e.prevUpstreamTotal = upstreamTotal
	e.prevUpstreamError = upstreamError

	e.evalSLO(SLOAPIAvailability, e.apiTotal.total, e.apiError.total, e.apiAvailTarget)
	e.evalSLO(SLOAPILatency, e.apiTotal.total, e.apiTotal.total-e.apiGood.total, e.apiLatencyTarget)
	e.evalSLO(SLOUpstreamSuccess, e.upstreamTotal.total, e.upstreamError.total, e.upstreamTarget)
}

func (e *SLOEvaluator) evalSLO(name string, total float64, bad float64, target float64) {
	if total <= 0 {
		e.metrics.sloCompliance.Set(1, name, e.windowLabel)
		e.metrics.sloBudget.Set(1, name, e.windowLabel)
		e.metrics.sloBurn.Set(0, name, e.windowLabel)
		return
	}
	sli := clamp01(1 - bad/total)
	burn := 0.0
	if target < 1 {
		burn = (1 - sli) / (1 - target)
	}
	budget := clamp01(1 - burn)
	e.metrics.sloCompliance.Set(sli, name, e.windowLabel)
	e.metrics.sloBudget.Set(budget, name, e.windowLabel)
	e.metrics.sloBurn.Set(burn, name, e.windowLabel)

	if e.alertWebhook == "" || e.alertOwner == "" {
		return
	}
	severity := ""
	if burn >= e.alertBurnCrit {
		severity = "critical"
	} else if burn >= e.alertBurnWarn {
		severity = "warning"
	}
	if severity == "" {
		return
	}
	key := name + ":" + severity
	e.alertMu.Lock()
	last := e.lastAlerts[key]
	if !last.IsZero() && time.Since(last) < e.alertMinInterval {
		e.alertMu.Unlock()
		return
	}
	e.lastAlerts[key] = time.Now()
	e.alertMu.Unlock()
	e.sendAlert(name, severity, sli, target, burn, budget)
}

func (e *SLOEvaluator) sendAlert(name, severity string, sli, target, burn, budget float64) {
	payload := map[string]any{
		"title":                  "SLO burn rate alert",
		"severity":               severity,
		"owner":                  e.alertOwner,
		"slo":                    name,
		"window":                 e.windowLabel,
		"sli":                    sli,
		"target":                 target,
		"burn_rate":              burn,
		"error_budget_remaining": budget,
		"runbook":                e.alertRunbook,
		"timestamp":              time.Now().UTC().Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	resp, err := e.client.Post(e.alertWebhook, sloAlertContentType, bytes.NewReader(body))
	if err != nil {
		if e.log != nil {
			e.log.Warn("slo alert post failed", "error", err, "slo", name)
		}
		return
	}
	_ = resp.Body.Close()
	if e.log != nil {
		e.log.Info("slo alert sent", "slo", name, "severity", severity, "status", resp.StatusCode)
	}
}

// SLOValue exposes a published gauge; kind is compliance, budget or burn.
func (m *Metrics) SLOValue(kind, slo, window string) float64 {
	if m == nil {
		return 0
	}
	switch kind {
	case "compliance":
		return m.sloCompliance.Value(slo, window)
	case "budget":
		return m.sloBudget.Value(slo, window)
	case "burn":
		return m.sloBurn.Value(slo, window)
	}
	return 0
}

func delta(current, prev float64) float64 {
	if current < prev {
		return current
	}
	return current - prev
}

func parseFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(envutil.String(key, ""))
	if raw == "" {
		return def
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return def
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func formatWindowLabel(window time.Duration) string {
	hours := window.Hours()
	if hours >= 24 && int(hours)%24 == 0 && hours == float64(int(hours)) {
		return strconv.Itoa(int(hours/24)) + "d"
	}
	if hours >= 1 {
		return strconv.Itoa(int(hours)) + "h"
	}
	return strconv.Itoa(int(window.Minutes())) + "m"
}
