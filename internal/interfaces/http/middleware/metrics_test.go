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

// metricsRouter wires the middleware to an in-memory reader so recorded
// series can be collected and asserted.
func metricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(provider.Meter("http.server"), true))
	return router, reader
}

func collectHTTPMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestHTTPMetrics_DisabledConfigIsPassthrough(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: false}))
	router.GET("/items", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_NilProviderIsPassthrough(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: true, MeterProvider: nil}))
	router.GET("/items", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetricsWithMeter_RequestCounter(t *testing.T) {
	router, reader := metricsRouter(t)
	router.GET("/api/v1/items/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items/42", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	m, ok := collectHTTPMetric(t, reader, "http_server_request_total")
	require.True(t, ok)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	dp := sum.DataPoints[0]
	assert.Equal(t, int64(3), dp.Value)

	// route label is the pattern, not the concrete path
	route, ok := dp.Attributes.Value(attribute.Key("http.route"))
	require.True(t, ok)
	assert.Equal(t, "/api/v1/items/:id", route.AsString())

	status, ok := dp.Attributes.Value(attribute.Key("http.status_code"))
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusOK), status.AsInt64())
}

func TestHTTPMetricsWithMeter_StatusCodesSplitSeries(t *testing.T) {
	router, reader := metricsRouter(t)
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/missing", func(c *gin.Context) { c.String(http.StatusNotFound, "nope") })

	for _, path := range []string{"/ok", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	m, ok := collectHTTPMetric(t, reader, "http_server_request_total")
	require.True(t, ok)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 2)
}

func TestHTTPMetricsWithMeter_Duration(t *testing.T) {
	router, reader := metricsRouter(t)
	router.GET("/items", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))

	m, ok := collectHTTPMetric(t, reader, "http_server_request_duration_seconds")
	require.True(t, ok)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	// latency series carries no status_code label
	_, hasStatus := hist.DataPoints[0].Attributes.Value(attribute.Key("http.status_code"))
	assert.False(t, hasStatus)
}

func TestHTTPMetricsWithMeter_BodySizes(t *testing.T) {
	router, reader := metricsRouter(t)
	router.POST("/items", func(c *gin.Context) {
		c.String(http.StatusCreated, strings.Repeat("x", 256))
	})

	body := strings.NewReader(`{"sku":"SKU-001","quantity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/items", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	reqSize, ok := collectHTTPMetric(t, reader, "http_server_request_size_bytes")
	require.True(t, ok)
	reqHist, ok := reqSize.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, reqHist.DataPoints, 1)
	assert.Equal(t, uint64(1), reqHist.DataPoints[0].Count)

	respSize, ok := collectHTTPMetric(t, reader, "http_server_response_size_bytes")
	require.True(t, ok)
	respHist, ok := respSize.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, respHist.DataPoints, 1)
	assert.Equal(t, 256.0, respHist.DataPoints[0].Sum)
}

func TestHTTPMetricsWithMeter_ActiveRequestsSettle(t *testing.T) {
	router, reader := metricsRouter(t)
	router.GET("/items", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))

	m, ok := collectHTTPMetric(t, reader, "http_server_active_requests")
	require.True(t, ok)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestHTTPMetricsWithMeter_UnmatchedRoute(t *testing.T) {
	router, reader := metricsRouter(t)
	router.GET("/items", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no-such-path", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	m, ok := collectHTTPMetric(t, reader, "http_server_request_total")
	require.True(t, ok)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	route, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("http.route"))
	require.True(t, ok)
	assert.Equal(t, "unknown", route.AsString())
}

func TestHTTPMetricsWithMeter_Disabled(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(provider.Meter("http.server"), false))
	router.GET("/items", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
	require.Equal(t, http.StatusOK, w.Code)

	_, ok := collectHTTPMetric(t, reader, "http_server_request_total")
	assert.False(t, ok)
}
