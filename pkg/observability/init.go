// Package observability traces the phases of a benchmark run with
// OpenTelemetry. Tracing is off unless requested; when off every tracer is a
// no-op and spans cost nothing measurable.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	tracer   trace.Tracer = noop.NewTracerProvider().Tracer("")
	provider *sdktrace.TracerProvider
	mu       sync.RWMutex
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	// Enabled turns on span export; otherwise a no-op tracer is installed
	Enabled bool
	// Writer receives finished spans as JSON, defaulting to stderr
	Writer      io.Writer
	PrettyPrint bool
	// SamplingRate is the fraction of traces kept; 0 means all of them
	SamplingRate float64
}

// DefaultTracingConfig returns tracing disabled, exporting to stderr if turned on.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "modelperf",
		ServiceVersion: "dev",
		Writer:         os.Stderr,
		SamplingRate:   1.0,
	}
}

// Initialize installs the tracer provider described by config.
func Initialize(config TracingConfig) error {
	mu.Lock()
	defer mu.Unlock()

	if !config.Enabled {
		tracer = noop.NewTracerProvider().Tracer(config.ServiceName)
		return nil
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(writer)}
	if config.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	return install(config, sdktrace.WithSyncer(exporter))
}

// InitializeWithExporter installs a provider that hands spans to exporter
// synchronously. Tests use it with an in-memory exporter.
func InitializeWithExporter(config TracingConfig, exporter sdktrace.SpanExporter) error {
	mu.Lock()
	defer mu.Unlock()
	return install(config, sdktrace.WithSyncer(exporter))
}

func install(config TracingConfig, exportOpt sdktrace.TracerProviderOption) error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", config.ServiceName),
			attribute.String("service.version", config.ServiceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate <= 0 || config.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		exportOpt,
	)

	otel.SetTracerProvider(tp)
	provider = tp
	tracer = tp.Tracer(config.ServiceName)
	return nil
}

// GetTracer returns the installed tracer
func GetTracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return tracer
}

// Shutdown flushes and stops the tracer provider, if one was installed.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	tracer = noop.NewTracerProvider().Tracer("")
	mu.Unlock()

	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer: %w", err)
	}
	return nil
}
