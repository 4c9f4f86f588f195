// Package telemetry wires OpenTelemetry tracing and Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/njchilds90/golimits/internal/config"
)

var ErrUnknownExporter = errors.New("unknown trace exporter")

// NewTracerProvider builds a provider for cfg, writing stdout spans to w. It
// returns nil when tracing is off.
func NewTracerProvider(cfg config.Telemetry, w io.Writer) (*sdktrace.TracerProvider, error) {
	switch cfg.TraceExporter {
	case "", "none":
		return nil, nil
	case "stdout":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	res := resource.NewWithAttributes("", attribute.String("service.name", cfg.ServiceName))
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

// InitTracing installs the global tracer provider. The returned shutdown
// flushes pending spans and is safe to call when tracing is off.
func InitTracing(cfg config.Telemetry, w io.Writer) (shutdown func(context.Context) error, err error) {
	tp, err := NewTracerProvider(cfg, w)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	if tp == nil {
		return func(context.Context) error { return nil }, nil
	}
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
