package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("http.server")

	router := gin.New()
	router.Use(HTTPMetrics(meter))
	router.GET("/api/v1/allocation-sessions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/v1/allocation-sessions/:id/events", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/allocation-sessions/a", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/allocation-sessions/b", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/allocation-sessions/a/events", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	metrics := collectMetrics(t, reader)

	total, ok := metrics["http_server_request_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byRoute := make(map[string]int64)
	for _, dp := range total.DataPoints {
		route, _ := dp.Attributes.Value("http_route")
		status, _ := dp.Attributes.Value("http_status_code")
		byRoute[route.AsString()+" "+status.Emit()] += dp.Value
	}
	assert.Equal(t, int64(2), byRoute["/api/v1/allocation-sessions/:id 200"])
	assert.Equal(t, int64(1), byRoute["/api/v1/allocation-sessions/:id/events 422"])
	assert.Equal(t, int64(1), byRoute["unknown 404"])

	duration, ok := metrics["http_server_request_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range duration.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(4), count)

	active, ok := metrics["http_server_active_requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range active.DataPoints {
		assert.Zero(t, dp.Value)
	}
}

func TestHTTPMetrics_NilMeter(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
