package middleware

import (
	"errors"
	"time"

	"github.com/erp/restaurant/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
}

var sizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}

type httpMetrics struct {
	requests     *telemetry.Counter
	duration     *telemetry.Histogram
	requestSize  *telemetry.Histogram
	responseSize *telemetry.Histogram
	inFlight     metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	sizeHistogram := func(name, description string) (*telemetry.Histogram, error) {
		return telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name: name, Description: description, Unit: "By", Boundaries: sizeBuckets,
		})
	}

	var m httpMetrics
	var errs [5]error
	m.requests, errs[0] = telemetry.NewCounter(meter,
		"http_server_request_total", "HTTP requests by method, route and status", "{request}")
	m.duration, errs[1] = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	m.requestSize, errs[2] = sizeHistogram("http_server_request_size_bytes", "HTTP request body size")
	m.responseSize, errs[3] = sizeHistogram("http_server_response_size_bytes", "HTTP response body size")
	m.inFlight, errs[4] = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests being served"),
		metric.WithUnit("{request}"),
	)
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return &m, nil
}

func passThrough(c *gin.Context) { c.Next() }

// HTTPMetrics records request metrics on the provider's "http.server" meter.
// It is a pass-through when metrics are not exported.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"), true)
}

// HTTPMetricsWithMeter records request count, latency, body sizes and
// in-flight requests on meter. Series are keyed by route pattern; the status
// code is only on the request counter.
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		m.inFlight.Add(ctx, 1)
		c.Next()
		m.inFlight.Add(ctx, -1)

		method := telemetry.AttrHTTPMethod.String(c.Request.Method)
		route := telemetry.AttrHTTPRoute.String(getRoutePattern(c))
		status := c.Writer.Status()

		m.requests.Inc(ctx, method, route, telemetry.AttrHTTPStatusCode.Int(status))
		m.duration.RecordDuration(ctx, time.Since(start), method, route)
		if n := c.Request.ContentLength; n > 0 {
			m.requestSize.Record(ctx, float64(n), method, route)
		}
		if n := c.Writer.Size(); n > 0 {
			m.responseSize.Record(ctx, float64(n), method, route)
		}
	}
}

// getRoutePattern returns the matched route, e.g. "/api/v1/sessions/:id",
// or "unknown" when nothing matched
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}
