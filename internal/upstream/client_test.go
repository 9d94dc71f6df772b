package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/ctxutil"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"User not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"name":"Ivan","email":"ivan@example.com","phone":"+7 900","avatar":"a.png"}`))
	})
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userId") == "9" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"userId":1,"productIds":[1,2],"total":5990,"status":"completed","date":"2024-01-15"}]`))
	})
	mux.HandleFunc("GET /products/popular", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"Laptop","price":49990}]`))
	})
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":3,"name":"Headphones","price":2990}`))
	})
	mux.HandleFunc("GET /echo-request-id", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"` + r.Header.Get("X-Request-Id") + `"`))
	})
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	mux.HandleFunc("GET /garbage", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newServices(t *testing.T, baseURL string, m *observability.Metrics) Services {
	t.Helper()
	s, err := NewServices(ServicesConfig{
		UserURL:    baseURL,
		OrderURL:   baseURL,
		ProductURL: baseURL,
		Options:    Options{Metrics: m},
	})
	require.NoError(t, err)
	return s
}

func TestTypedAccessors(t *testing.T) {
	srv := newTestServer(t)
	s := newServices(t, srv.URL, nil)
	ctx := context.Background()

	u, err := s.Users.UserByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ivan", u.Name)
	assert.Equal(t, "a.png", u.Avatar)

	orders, err := s.Orders.OrdersByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, []int{1, 2}, orders[0].ProductIDs)
	assert.Equal(t, int64(5990), orders[0].Total)

	popular, err := s.Products.PopularProducts(ctx)
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, "Laptop", popular[0].Name)

	p, err := s.Products.ProductByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2990), p.Price)
}

func TestNon2xxCarriesStatusAndMessage(t *testing.T) {
	srv := newTestServer(t)
	m := observability.New()
	s := newServices(t, srv.URL, m)

	_, err := s.Users.UserByID(context.Background(), 7)
	require.Error(t, err)
	ue, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, ue.StatusCode)
	assert.Equal(t, "User not found", ue.ClientMessage())
	assert.Equal(t, "user", ue.Service)
	assert.True(t, ue.HasStatus())
}

func TestNon2xxWithoutBodyFallsBackToGenericMessage(t *testing.T) {
	srv := newTestServer(t)
	s := newServices(t, srv.URL, nil)

	_, err := s.Orders.OrdersByUserID(context.Background(), 9)
	ue, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, ue.StatusCode)
	assert.Equal(t, DefaultErrorMessage, ue.ClientMessage())
}

func TestNetworkFailureHasZeroStatus(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL
	srv.Close()

	c, err := New(Options{Service: "user", BaseURL: url})
	require.NoError(t, err)

	var out map[string]any
	err = c.Get(context.Background(), "/users/1", &out)
	ue, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 0, ue.StatusCode)
	assert.False(t, ue.HasStatus())
	assert.NotNil(t, ue.Unwrap())
}

func TestTimeoutIsANetworkFailure(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(Options{Service: "order", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	err = c.Get(context.Background(), "/slow", nil)
	ue, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 0, ue.StatusCode)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUndecodableBodyIsAnError(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(Options{Service: "product", BaseURL: srv.URL})
	require.NoError(t, err)

	var out map[string]any
	err = c.Get(context.Background(), "/garbage", &out)
	ue, ok := AsError(err)
	require.True(t, ok)
	assert.False(t, ue.HasStatus())
	assert.Contains(t, err.Error(), "decode response")
}

func TestRequestIDIsForwarded(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(Options{Service: "user", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL, c.BaseURL())

	ctx := ctxutil.WithTraceData(context.Background(), &ctxutil.TraceData{RequestID: "req-123"})
	var got string
	require.NoError(t, c.Get(ctx, "/echo-request-id", &got))
	assert.Equal(t, "req-123", got)
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Service: "user"})
	assert.Error(t, err)
	_, err = New(Options{BaseURL: "http://x"})
	assert.Error(t, err)
}

type countingTransport struct {
	next  http.RoundTripper
	trips atomic.Int32
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.trips.Add(1)
	return c.next.RoundTrip(r)
}

func TestServicesShareTheConfiguredHTTPClient(t *testing.T) {
	srv := newTestServer(t)
	hc := DefaultHTTPClient()
	tr := &countingTransport{next: hc.Transport}
	hc.Transport = tr

	s, err := NewServices(ServicesConfig{
		UserURL:    srv.URL,
		OrderURL:   srv.URL,
		ProductURL: srv.URL,
		Options:    Options{HTTPClient: hc},
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = s.Users.UserByID(ctx, 1)
	require.NoError(t, err)
	_, err = s.Orders.OrdersByUserID(ctx, 1)
	require.NoError(t, err)
	_, err = s.Products.ProductByID(ctx, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, tr.trips.Load())
}

func TestDefaultHTTPClientPool(t *testing.T) {
	tr, ok := DefaultHTTPClient().Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, MaxIdleConnsPerHost, tr.MaxIdleConnsPerHost)
	assert.NotSame(t, http.DefaultTransport, tr)
}
