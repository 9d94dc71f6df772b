package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

const maxErrorBody = 1 << 20

type Options struct {
	// Service names the upstream in errors, logs and metrics ("user", "order", "product").
	Service string
	BaseURL string

	// Timeout is applied per call. Zero leaves deadlines to the caller's context.
	Timeout time.Duration

	HTTPClient *http.Client
	Log        *logger.Logger
	Metrics    *observability.Metrics
}

// Client is a JSON-over-HTTP accessor for one upstream service. It performs no
// retries; every failure is returned to the caller as an *Error.
type Client struct {
	service    string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        *logger.Logger
	metrics    *observability.Metrics
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	service := strings.TrimSpace(opts.Service)
	if service == "" {
		return nil, errors.New("service name required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		service:    service,
		baseURL:    baseURL,
		timeout:    opts.Timeout,
		httpClient: hc,
		log:        log.With("upstream", service),
		metrics:    opts.Metrics,
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// Get issues GET {baseURL}{path} and decodes a 2xx JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	ctx, span := observability.Tracer().Start(ctx, "upstream "+c.service,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upstream.service", c.service),
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	status, err := c.do(ctx, path, out)
	c.metrics.ObserveUpstream(c.service, status, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fields := append([]interface{}{"path", path, "status", status, "error", err}, ctxutil.LogFields(ctx)...)
		c.log.Warn("upstream call failed", fields...)
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, &Error{Service: c.service, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		req.Header.Set("X-Request-Id", td.RequestID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &Error{Service: c.service, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, parseHTTPError(c.service, path, resp.StatusCode, raw)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &Error{Service: c.service, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}
