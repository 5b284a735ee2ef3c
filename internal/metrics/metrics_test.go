package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCounters(t *testing.T) {
	m := New()
	m.ObserveRequest("tools/call", 0, 10*time.Millisecond)
	m.ObserveRequest("tools/call", 0, 20*time.Millisecond)
	m.ObserveRequest("foo", -32601, time.Millisecond)
	m.ObserveToolCall("add_numbers", "ok")
	m.ObserveWeather("synthetic")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("tools/call", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("foo", "-32601")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("add_numbers", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.weather.WithLabelValues("synthetic")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("ping", 0, time.Millisecond)
	m.ObserveToolCall("echo", "ok")
	m.ObserveWeather("cache")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveWeather("provider")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `mcp_weather_lookups_total{source="provider"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
