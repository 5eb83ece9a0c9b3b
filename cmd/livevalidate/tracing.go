package main

import (
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sigrams/livevalidate/internal/config"
)

// newTracerProvider returns a provider that writes finished spans to w as
// JSON. The caller shuts it down to flush pending spans.
func newTracerProvider(w io.Writer, cfg config.TracingConfig) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.TracerName),
			attribute.String("service.version", version),
		)),
	), nil
}
