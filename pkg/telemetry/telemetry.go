package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ShutdownFunc flushes and stops the providers installed by Init.
type ShutdownFunc func(context.Context) error

// Endpoint is a collector address in the form the gRPC exporters take.
type Endpoint struct {
	HostPort string
	Insecure bool
}

// ParseEndpoint accepts either host:port or a URL such as
// http://collector:4317. Only https URLs use TLS.
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		if raw == "" {
			return Endpoint{}, errors.New("empty otlp endpoint")
		}
		return Endpoint{HostPort: raw, Insecure: true}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse otlp endpoint: %w", err)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("otlp endpoint %q has no host", raw)
	}
	switch u.Scheme {
	case "http":
		return Endpoint{HostPort: u.Host, Insecure: true}, nil
	case "https":
		return Endpoint{HostPort: u.Host}, nil
	default:
		return Endpoint{}, fmt.Errorf("otlp endpoint %q: unsupported scheme %s", raw, u.Scheme)
	}
}

// Init configures global OpenTelemetry providers for traces, metrics and
// logs exported over OTLP gRPC. An empty endpoint installs nothing and
// returns a no-op shutdown.
func Init(ctx context.Context, service, version, endpoint string) (ShutdownFunc, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	ep, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(service),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(ep.HostPort)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(ep.HostPort)}
	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(ep.HostPort)}
	if ep.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}

	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	tracer := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExp),
	)

	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	meter := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)

	logExp, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		_ = errors.Join(tracer.Shutdown(ctx), meter.Shutdown(ctx))
		return nil, fmt.Errorf("log exporter: %w", err)
	}
	logger := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
	)

	otel.SetTracerProvider(tracer)
	otel.SetMeterProvider(meter)
	global.SetLoggerProvider(logger)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		return errors.Join(tracer.Shutdown(ctx), meter.Shutdown(ctx), logger.Shutdown(ctx))
	}, nil
}
