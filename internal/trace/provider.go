package trace

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Provider owns the SDK tracer provider. Spans always reach the in-memory
// Manager; they are also exported over OTLP when OTEL_EXPORTER_OTLP_ENDPOINT
// is set.
type Provider struct {
	provider  *sdktrace.TracerProvider
	Manager   *Manager
	exporting bool
}

// NewProvider creates the tracer provider.
func NewProvider(ctx context.Context, maxTraces int) (*Provider, error) {
	m := NewManager(maxTraces)

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = "arcshell"
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSyncer(m),
		sdktrace.WithResource(res),
	}

	exporting := false
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithInsecure(), // local collectors
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		exporting = true
	}

	return &Provider{
		provider:  sdktrace.NewTracerProvider(opts...),
		Manager:   m,
		exporting: exporting,
	}, nil
}

// TracerProvider returns the provider to hand to instrumented components.
func (p *Provider) TracerProvider() oteltrace.TracerProvider {
	return p.provider
}

// Exporting reports whether spans are sent to an OTLP endpoint.
func (p *Provider) Exporting() bool {
	return p.exporting
}

// Shutdown flushes and closes the exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
