package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newManualMeter returns a meter backed by a manual reader so tests can
// collect exactly what the middleware recorded.
func newManualMeter(t *testing.T) (metric.Meter, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })
	return provider.Meter("test"), reader
}

// collectedMetric reads current data and returns the named metric.
func collectedMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// requestTotalPoint returns the single data point of the request counter.
func requestTotalPoint(t *testing.T, reader *sdkmetric.ManualReader) metricdata.DataPoint[int64] {
	t.Helper()
	m, ok := collectedMetric(t, reader, "http_server_request_total")
	require.True(t, ok, "request_total metric not recorded")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	return sum.DataPoints[0]
}

// attrString returns the string value of an attribute on a data point.
func attrString(dp metricdata.DataPoint[int64], key string) (string, bool) {
	for _, attr := range dp.Attributes.ToSlice() {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}
	return "", false
}

func serveMetered(meter metric.Meter, enabled bool, route, path string) {
	router := gin.New()
	router.Use(HTTPMetricsWithMeter(meter, enabled))
	if route != "" {
		router.GET(route, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
}

func TestHTTPMetricsWithMeter_RecordsRequestTotal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	meter, reader := newManualMeter(t)

	serveMetered(meter, true, "/api/v1/orders/:id", "/api/v1/orders/123")

	dp := requestTotalPoint(t, reader)
	assert.Equal(t, int64(1), dp.Value)

	// Route label must be the pattern, not the raw path.
	route, ok := attrString(dp, "http.route")
	require.True(t, ok, "http.route attribute not found")
	assert.Equal(t, "/api/v1/orders/:id", route)
}

func TestHTTPMetricsWithMeter_RecordsDuration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	meter, reader := newManualMeter(t)

	serveMetered(meter, true, "/ping", "/ping")

	m, ok := collectedMetric(t, reader, "http_server_request_duration_seconds")
	require.True(t, ok, "duration metric not recorded")
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestHTTPMetricsWithMeter_StoreIDLabel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	meter, reader := newManualMeter(t)
	storeID := uuid.New().String()

	serveMetered(meter, true, "/api/v1/stores/:store_id/settlements", "/api/v1/stores/"+storeID+"/settlements")

	got, ok := attrString(requestTotalPoint(t, reader), "store_id")
	require.True(t, ok, "store_id attribute not found in metrics")
	assert.Equal(t, storeID, got)
}

func TestHTTPMetricsWithMeter_InvalidStoreIDDropped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	meter, reader := newManualMeter(t)

	serveMetered(meter, true, "/api/v1/stores/:store_id/settlements", "/api/v1/stores/not-a-uuid/settlements")

	_, ok := attrString(requestTotalPoint(t, reader), "store_id")
	assert.False(t, ok, "malformed store_id must not be recorded")
}

func TestHTTPMetricsWithMeter_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	meter, reader := newManualMeter(t)

	serveMetered(meter, false, "/ping", "/ping")

	_, ok := collectedMetric(t, reader, "http_server_request_total")
	assert.False(t, ok, "disabled middleware should not record metrics")
}

func TestHTTPMetricsWithMeter_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	meter, reader := newManualMeter(t)

	serveMetered(meter, true, "", "/does-not-exist")

	route, ok := attrString(requestTotalPoint(t, reader), "http.route")
	require.True(t, ok)
	assert.Equal(t, "unknown", route)
}
