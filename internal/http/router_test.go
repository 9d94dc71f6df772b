package http

import (
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/neurobridge-bff/internal/aggregate"
	"github.com/yungbote/neurobridge-bff/internal/cache"
	"github.com/yungbote/neurobridge-bff/internal/domain/dashboard"
	httpH "github.com/yungbote/neurobridge-bff/internal/http/handlers"
	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/upstream"
)

// fakeUpstreams serves the three upstream services from one listener.
type fakeUpstreams struct {
	srv   *httptest.Server
	calls atomic.Int32

	mu     sync.Mutex
	failOn map[string]failure
}

type failure struct {
	status  int
	message string
}

func newFakeUpstreams(t *testing.T) *fakeUpstreams {
	t.Helper()
	f := &fakeUpstreams{failOn: map[string]failure{}}
	mux := nethttp.NewServeMux()
	mux.HandleFunc("GET /users/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if f.fail(w, "users") {
			return
		}
		switch r.PathValue("id") {
		case "1":
			writeJSON(w, nethttp.StatusOK, `{"id":1,"name":"Ivan Petrov","email":"ivan@example.com","phone":"+7 900 123-45-67","avatar":"https://i.pravatar.cc/150?img=1"}`)
		default:
			writeJSON(w, nethttp.StatusNotFound, `{"error":"User not found"}`)
		}
	})
	mux.HandleFunc("GET /orders", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if f.fail(w, "orders") {
			return
		}
		if r.URL.Query().Get("userId") != "1" {
			writeJSON(w, nethttp.StatusOK, `[]`)
			return
		}
		writeJSON(w, nethttp.StatusOK, `[
			{"id":1,"userId":1,"productIds":[1,2],"total":5990,"status":"completed","date":"2024-01-15"},
			{"id":2,"userId":1,"productIds":[3],"total":2990,"status":"pending","date":"2024-01-20"}
		]`)
	})
	mux.HandleFunc("GET /products/popular", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if f.fail(w, "popular") {
			return
		}
		writeJSON(w, nethttp.StatusOK, `[{"id":1,"name":"Laptop","price":49990,"category":"electronics","inStock":true}]`)
	})
	mux.HandleFunc("GET /products/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if f.fail(w, "product:"+r.PathValue("id")) {
			return
		}
		names := map[string]string{"1": "Laptop", "2": "Mouse", "3": "Headphones"}
		prices := map[string]int{"1": 49990, "2": 990, "3": 2990}
		name, ok := names[r.PathValue("id")]
		if !ok {
			writeJSON(w, nethttp.StatusNotFound, `{"error":"Product not found"}`)
			return
		}
		writeJSON(w, nethttp.StatusOK, fmt.Sprintf(`{"id":%s,"name":%q,"price":%d}`, r.PathValue("id"), name, prices[r.PathValue("id")]))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstreams) fail(w nethttp.ResponseWriter, what string) bool {
	f.calls.Add(1)
	f.mu.Lock()
	fl := f.failOn[what]
	f.mu.Unlock()
	if fl.status == 0 {
		return false
	}
	if fl.message == "" {
		w.WriteHeader(fl.status)
		return true
	}
	body, _ := json.Marshal(map[string]string{"error": fl.message})
	writeJSON(w, fl.status, string(body))
	return true
}

// setFailure makes what answer with status and an empty body.
func (f *fakeUpstreams) setFailure(what string, status int) {
	f.setFailureMessage(what, status, "")
}

func (f *fakeUpstreams) setFailureMessage(what string, status int, message string) {
	f.mu.Lock()
	f.failOn[what] = failure{status: status, message: message}
	f.mu.Unlock()
}

func writeJSON(w nethttp.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

type harness struct {
	engine *gin.Engine
	up     *fakeUpstreams
	store  *cache.MemoryStore
}

func newHarness(t *testing.T, profile dashboard.Profile, store cache.Store, upstreamURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := observability.New()
	svcs, err := upstream.NewServices(upstream.ServicesConfig{
		UserURL:    upstreamURL,
		OrderURL:   upstreamURL,
		ProductURL: upstreamURL,
		Options:    upstream.Options{Metrics: m},
	})
	require.NoError(t, err)
	agg, err := aggregate.New(aggregate.Options{Services: svcs, Metrics: m})
	require.NoError(t, err)
	gate := cache.NewGate(cache.GateOptions{Store: store, Metrics: m})

	return NewRouter(RouterConfig{
		Profile:          profile,
		Metrics:          m,
		ExposeMetrics:    true,
		DashboardHandler: httpH.NewDashboardHandler(nil, profile, agg, gate),
		UserHandler:      httpH.NewUserHandler(nil, profile, agg, gate),
		HealthHandler:    httpH.NewHealthHandler(profile, gate),
	})
}

func newTestHarness(t *testing.T, profile dashboard.Profile) *harness {
	t.Helper()
	up := newFakeUpstreams(t)
	store := cache.NewMemoryStore(cache.MemoryOptions{})
	return &harness{engine: newHarness(t, profile, store, up.srv.URL), up: up, store: store}
}

func (h *harness) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, path, nil))
	return rec
}

func TestDashboardCacheIdempotence(t *testing.T) {
	for _, profile := range []dashboard.Profile{dashboard.ProfileMobile, dashboard.ProfileWeb} {
		t.Run(string(profile), func(t *testing.T) {
			h := newTestHarness(t, profile)

			first := h.get(t, "/api/dashboard/1")
			require.Equal(t, nethttp.StatusOK, first.Code)
			calls := h.up.calls.Load()
			require.Positive(t, calls)

			second := h.get(t, "/api/dashboard/1")
			require.Equal(t, nethttp.StatusOK, second.Code)
			assert.Equal(t, calls, h.up.calls.Load(), "second request must be served from cache")
			assert.Equal(t, first.Body.String(), second.Body.String())

			_, found, err := h.store.Get(t.Context(), string(profile)+":dashboard:1")
			require.NoError(t, err)
			assert.True(t, found)
		})
	}
}

func TestWebDashboardBody(t *testing.T) {
	h := newTestHarness(t, dashboard.ProfileWeb)

	rec := h.get(t, "/api/dashboard/1")
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var body dashboard.WebDashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, dashboard.Statistics{
		TotalOrders:       2,
		TotalSpent:        8980,
		AverageOrderValue: 4490,
		StatusBreakdown:   map[string]int{"completed": 1, "pending": 1},
	}, body.Statistics)
	require.Len(t, body.Orders, 2)
	assert.Equal(t, []dashboard.ProductRef{{ID: 1, Name: "Laptop", Price: 49990}, {ID: 2, Name: "Mouse", Price: 990}}, body.Orders[0].Products)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestMobileDashboardBody(t *testing.T) {
	h := newTestHarness(t, dashboard.ProfileMobile)

	rec := h.get(t, "/api/dashboard/1")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"user":{"id":1,"name":"Ivan Petrov","avatar":"https://i.pravatar.cc/150?img=1"},
		"orders":[
			{"id":1,"total":5990,"status":"completed","date":"2024-01-15"},
			{"id":2,"total":2990,"status":"pending","date":"2024-01-20"}
		],
		"summary":{"totalOrders":2,"totalSpent":8980}
	}`, rec.Body.String())
}

func TestCacheFailureIsTransparent(t *testing.T) {
	for _, profile := range []dashboard.Profile{dashboard.ProfileMobile, dashboard.ProfileWeb} {
		t.Run(string(profile), func(t *testing.T) {
			h := newTestHarness(t, profile)
			healthy := h.get(t, "/api/dashboard/1")
			require.Equal(t, nethttp.StatusOK, healthy.Code)

			down := newTestHarness(t, profile)
			down.store.SetConnected(false)
			first := down.get(t, "/api/dashboard/1")
			before := down.up.calls.Load()
			second := down.get(t, "/api/dashboard/1")

			assert.Equal(t, nethttp.StatusOK, first.Code)
			assert.Equal(t, healthy.Body.String(), first.Body.String())
			assert.Equal(t, first.Body.String(), second.Body.String())
			assert.Greater(t, down.up.calls.Load(), before, "uncached requests must reach the upstreams")
		})
	}
}

func TestPrimaryFailureIsMirrored(t *testing.T) {
	for _, profile := range []dashboard.Profile{dashboard.ProfileMobile, dashboard.ProfileWeb} {
		t.Run(string(profile), func(t *testing.T) {
			h := newTestHarness(t, profile)
			h.up.setFailureMessage("orders", nethttp.StatusServiceUnavailable, "Order service is down for maintenance")

			rec := h.get(t, "/api/dashboard/1")
			assert.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)
			assert.JSONEq(t, `{"error":"Order service is down for maintenance"}`, rec.Body.String())
			assert.Zero(t, h.store.Len(), "failures must not be cached")
		})
	}
}

func TestPrimaryFailureWithoutMessageFallsBack(t *testing.T) {
	for _, profile := range []dashboard.Profile{dashboard.ProfileMobile, dashboard.ProfileWeb} {
		t.Run(string(profile), func(t *testing.T) {
			h := newTestHarness(t, profile)
			h.up.setFailure("orders", nethttp.StatusServiceUnavailable)

			rec := h.get(t, "/api/dashboard/1")
			assert.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)
			assert.JSONEq(t, `{"error":"Service error"}`, rec.Body.String())
		})
	}
}

func TestUnknownUserMirrorsUpstreamMessage(t *testing.T) {
	h := newTestHarness(t, dashboard.ProfileMobile)

	rec := h.get(t, "/api/user/42")
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())
}

func TestUnreachableUpstreamIs500(t *testing.T) {
	up := newFakeUpstreams(t)
	url := up.srv.URL
	up.srv.Close()
	engine := newHarness(t, dashboard.ProfileWeb, nil, url)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/api/dashboard/1", nil))
	assert.Equal(t, nethttp.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestEnrichmentFailureIsIsolated(t *testing.T) {
	h := newTestHarness(t, dashboard.ProfileWeb)
	h.up.setFailure("product:2", nethttp.StatusInternalServerError)

	rec := h.get(t, "/api/dashboard/1")
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var body dashboard.WebDashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []dashboard.ProductRef{{ID: 1, Name: "Laptop", Price: 49990}, {ID: 2, Name: "Unknown", Price: 0}}, body.Orders[0].Products)
	assert.Equal(t, []dashboard.ProductRef{{ID: 3, Name: "Headphones", Price: 2990}}, body.Orders[1].Products)
}

func TestInvalidIDIs400(t *testing.T) {
	h := newTestHarness(t, dashboard.ProfileWeb)

	for _, path := range []string{"/api/dashboard/abc", "/api/dashboard/0", "/api/dashboard/-3", "/api/user/1.5"} {
		rec := h.get(t, path)
		assert.Equal(t, nethttp.StatusBadRequest, rec.Code, path)
		assert.JSONEq(t, `{"error":"Invalid user id"}`, rec.Body.String(), path)
	}
	assert.Zero(t, h.up.calls.Load())
}

func TestUserRoutes(t *testing.T) {
	mobile := newTestHarness(t, dashboard.ProfileMobile)
	rec := mobile.get(t, "/api/user/1")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Ivan Petrov","email":"ivan@example.com","phone":"+7 900 123-45-67"}`, rec.Body.String())

	web := newTestHarness(t, dashboard.ProfileWeb)
	rec = web.get(t, "/api/user/1")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://i.pravatar.cc/150?img=1", body["avatar"])
	assert.Len(t, body["orderHistory"], 2)
	assert.Equal(t, map[string]any{"totalOrders": float64(2), "totalSpent": float64(8980)}, body["stats"])

	_, found, err := web.store.Get(t.Context(), "web:user:1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestHealth(t *testing.T) {
	h := newTestHarness(t, dashboard.ProfileWeb)
	rec := h.get(t, "/health")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"web-bff","cacheConnected":true,"redis":"connected"}`, rec.Body.String())

	h.store.SetConnected(false)
	rec = h.get(t, "/health")
	assert.JSONEq(t, `{"status":"ok","service":"web-bff","cacheConnected":false,"redis":"disconnected"}`, rec.Body.String())
	assert.Zero(t, h.up.calls.Load(), "health must not touch upstreams")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHarness(t, dashboard.ProfileMobile)
	h.get(t, "/api/dashboard/1")
	h.get(t, "/api/dashboard/1")

	rec := h.get(t, "/metrics")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `bff_cache_operations_total{route="dashboard",outcome="hit"} 1.000000`), body)
	assert.Contains(t, body, `bff_http_requests_total{method="GET",route="/api/dashboard/:userId",status="200"} 2.000000`)
}
