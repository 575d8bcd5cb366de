package middleware

import (
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrorCodeKey is the gin context key under which handlers record the API
// error code of a failed request
const ErrorCodeKey = "error_code"

const attrErrorCode = attribute.Key("error_code")

// Body size buckets; uploads reach the megabyte range, PDFs a few more
var (
	requestSizeBuckets  = []float64{100, 1e3, 1e4, 1e5, 1e6, 5e6, 2e7}
	responseSizeBuckets = []float64{100, 1e3, 1e4, 1e5, 1e6, 5e6}
)

type httpMetrics struct {
	requests     *telemetry.Counter
	errors       *telemetry.Counter
	duration     *telemetry.Histogram
	requestSize  *telemetry.Histogram
	responseSize *telemetry.Histogram
	inFlight     metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	m := &httpMetrics{}
	var err error
	if m.requests, err = telemetry.NewCounter(meter, "http_server_request_total",
		"HTTP requests by method, route and status", "{request}"); err != nil {
		return nil, err
	}
	if m.errors, err = telemetry.NewCounter(meter, "http_server_error_total",
		"HTTP requests answered with an API error, by route and error code", "{request}"); err != nil {
		return nil, err
	}
	if m.duration, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.requestSize, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_size_bytes",
		Description: "Declared HTTP request body size",
		Unit:        "By",
		Boundaries:  requestSizeBuckets,
	}); err != nil {
		return nil, err
	}
	if m.responseSize, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	}); err != nil {
		return nil, err
	}
	if m.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests being served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics records request counts, latency and body sizes. Routes are gin
// patterns such as "/api/v1/catalog/uploads/:id", never raw paths. A nil or
// disabled provider yields a no-op middleware.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	if mp == nil || !mp.IsEnabled() {
		return passThrough
	}
	m, err := newHTTPMetrics(mp.Meter("http.server"))
	if err != nil {
		return passThrough
	}
	return m.handler
}

func (m *httpMetrics) handler(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	m.inFlight.Add(ctx, 1)
	c.Next()
	m.inFlight.Add(ctx, -1)

	route := routePattern(c)
	attrs := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(route),
	}
	m.requests.Inc(ctx, append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
	if code := c.GetString(ErrorCodeKey); code != "" {
		m.errors.Inc(ctx, telemetry.AttrHTTPRoute.String(route), attrErrorCode.String(code))
	}
	m.duration.RecordDuration(ctx, time.Since(start), attrs...)
	if n := c.Request.ContentLength; n > 0 {
		m.requestSize.Record(ctx, float64(n), attrs...)
	}
	if n := c.Writer.Size(); n > 0 {
		m.responseSize.Record(ctx, float64(n), attrs...)
	}
}

// routePattern returns the matched route, or "unknown" for 404s
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

func passThrough(c *gin.Context) {
	c.Next()
}
