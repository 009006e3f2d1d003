package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupTestMeter sets up a test meter provider and reader.
func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func meteredRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.GET("/api/v1/sessions/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/api/v1/payments", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error": "session closed"})
	})
	return router, reader
}

func TestHTTPMetrics_DisabledOrUnconfigured(t *testing.T) {
	for _, cfg := range []HTTPMetricsConfig{{Enabled: false}, {Enabled: true}} {
		w := serve(okRouter(HTTPMetrics(cfg)), http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestHTTPMetricsWithMeter_RequestCounterByRoute(t *testing.T) {
	router, reader := meteredRouter(t)

	for _, id := range []string{"a", "b", "c"} {
		serve(router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount":"10"}`))
	serveRequest(router, req)

	rm := collectMetrics(t, reader)
	total := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, total)

	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2, "raw IDs must collapse into one route series")

	byRoute := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(attribute.Key("http.route"))
		status, _ := dp.Attributes.Value(attribute.Key("http.status_code"))
		byRoute[route.AsString()+" "+status.Emit()] = dp.Value
	}
	assert.Equal(t, int64(3), byRoute["/api/v1/sessions/:id 200"])
	assert.Equal(t, int64(1), byRoute["/api/v1/payments 409"])
}

func TestHTTPMetricsWithMeter_HistogramsAndActive(t *testing.T) {
	router, reader := meteredRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount":"10"}`))
	serveRequest(router, req)

	rm := collectMetrics(t, reader)

	for _, name := range []string{
		"http_server_request_duration_seconds",
		"http_server_request_size_bytes",
		"http_server_response_size_bytes",
	} {
		m := findMetricByName(rm, name)
		require.NotNil(t, m, name)
		hist, ok := m.Data.(metricdata.Histogram[float64])
		require.True(t, ok, name)
		require.Len(t, hist.DataPoints, 1, name)
		assert.Equal(t, uint64(1), hist.DataPoints[0].Count, name)
	}

	active := findMetricByName(rm, "http_server_active_requests")
	require.NotNil(t, active)
	sum, ok := active.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestGetRoutePattern_Unmatched(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, "unknown", getRoutePattern(c))
}
