package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "mcp", "1.0.0", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitInstallsLoggerProvider(t *testing.T) {
	prev := global.GetLoggerProvider()
	t.Cleanup(func() { global.SetLoggerProvider(prev) })

	// gRPC dials lazily, so no collector is needed to build the providers.
	shutdown, err := Init(context.Background(), "mcp", "1.0.0", "127.0.0.1:4317")
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	logger := global.GetLoggerProvider().Logger("mcp")
	assert.True(t, logger.Enabled(context.Background(), otellog.EnabledParameters{Severity: otellog.SeverityError}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}

func TestInitRejectsBadEndpoint(t *testing.T) {
	_, err := Init(context.Background(), "mcp", "1.0.0", "ftp://collector:4317")
	assert.Error(t, err)
}

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		raw  string
		want Endpoint
	}{
		{"collector:4317", Endpoint{HostPort: "collector:4317", Insecure: true}},
		{"http://collector:4317", Endpoint{HostPort: "collector:4317", Insecure: true}},
		{"http://collector:4317/", Endpoint{HostPort: "collector:4317", Insecure: true}},
		{"https://otel.example.com:4317", Endpoint{HostPort: "otel.example.com:4317"}},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseEndpoint(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"", "http://", "grpc://collector:4317"} {
		_, err := ParseEndpoint(bad)
		assert.Error(t, err, bad)
	}
}
