package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "livevalidate"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "livevalidate").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// Filter determines which events to trace. If nil, all events are
	// traced.
	Filter func(ctx *EventCtx) bool
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(ctx *EventCtx) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// OpenTelemetry creates middleware that traces every event.
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return MiddlewareFunc(func(ctx *EventCtx, next func() error) error {
		if config.Filter != nil && !config.Filter(ctx) {
			return next()
		}

		attrs := []attribute.KeyValue{
			attribute.String("livevalidate.page", ctx.Page),
			attribute.String("livevalidate.session_id", ctx.SessionID),
			attribute.String("livevalidate.event_type", ctx.EventType()),
		}
		if ctx.Event != nil {
			attrs = append(attrs, attribute.String("livevalidate.event_target", ctx.Event.HID))
		}

		spanCtx, span := tracer.Start(
			ctx.Context,
			fmt.Sprintf("livevalidate.%s", ctx.EventType()),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		parent := ctx.Context
		ctx.Context = spanCtx
		defer func() { ctx.Context = parent }()

		err := next()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(attribute.Int("livevalidate.patch_count", ctx.PatchCount))
		return err
	})
}

// SpanFromContext returns the span active for the event, if any.
func SpanFromContext(ctx *EventCtx) trace.Span {
	if ctx == nil || ctx.Context == nil {
		return nil
	}
	span := trace.SpanFromContext(ctx.Context)
	if !span.SpanContext().IsValid() && !span.IsRecording() {
		return nil
	}
	return span
}

// TraceContext returns the context to propagate to downstream calls.
func TraceContext(ctx *EventCtx) context.Context {
	if ctx == nil || ctx.Context == nil {
		return context.Background()
	}
	return ctx.Context
}
