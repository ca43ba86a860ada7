// Package tracing configures the OpenTelemetry tracer used by the engine to
// wrap graph runs, nodes and fan-out branches in spans.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName identifies this process in exported spans.
const ServiceName = "testgrid"

// Exporters understood by NewProvider.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Provider wraps the tracer provider so callers get a usable tracer whether
// or not tracing is enabled.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewProvider builds a provider for the named exporter. "none" (or "") yields
// a no-op tracer. "stdout" writes finished spans as JSON to w.
func NewProvider(exporter string, w io.Writer) (*Provider, error) {
	switch exporter {
	case ExporterNone, "":
		return &Provider{tracer: noop.NewTracerProvider().Tracer(ServiceName)}, nil
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		return newSDKProvider(sdktrace.WithBatcher(exp)), nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", exporter)
	}
}

// NewWithProcessor builds an enabled provider around an arbitrary span
// processor. Tests pass a tracetest.SpanRecorder here.
func NewWithProcessor(sp sdktrace.SpanProcessor) *Provider {
	return newSDKProvider(sdktrace.WithSpanProcessor(sp))
}

func newSDKProvider(opt sdktrace.TracerProviderOption) *Provider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		opt,
	)
	return &Provider{provider: tp, tracer: tp.Tracer(ServiceName)}
}

// Tracer returns the tracer for creating spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.provider != nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}
