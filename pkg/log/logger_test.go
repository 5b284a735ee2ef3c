package log

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("mcp", Options{Level: "warn", Format: "json", Out: &buf})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "city", "Tokyo")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "mcp", rec["service"])
	assert.Equal(t, "Tokyo", rec["city"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("mcp", Options{Format: "text", Out: &buf})
	require.NoError(t, err)

	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "service=mcp")
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New("mcp", Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New("mcp", Options{Format: "xml"})
	assert.Error(t, err)
}

type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range records {
		e.records = append(e.records, records[i].Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func TestNewOTelForwardsRecords(t *testing.T) {
	exp := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	prev := global.GetLoggerProvider()
	global.SetLoggerProvider(provider)
	t.Cleanup(func() {
		global.SetLoggerProvider(prev)
		_ = provider.Shutdown(context.Background())
	})

	var buf bytes.Buffer
	logger, err := New("mcp", Options{Level: "info", OTel: true, Out: &buf})
	require.NoError(t, err)

	logger.Debug("below level")
	logger.With("tool", "get_weather").Error("upstream failed", "status", 502)

	exp.mu.Lock()
	defer exp.mu.Unlock()
	require.Len(t, exp.records, 1)
	rec := exp.records[0]
	assert.Equal(t, "upstream failed", rec.Body().AsString())
	assert.Equal(t, otellog.SeverityError, rec.Severity())

	attrs := map[string]string{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.String()
		return true
	})
	assert.Equal(t, "get_weather", attrs["tool"])
	assert.Equal(t, "502", attrs["status"])

	var local map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &local))
	assert.Equal(t, "upstream failed", local["msg"])
	assert.Equal(t, "mcp", local["service"])
	assert.Equal(t, "get_weather", local["tool"])
}
