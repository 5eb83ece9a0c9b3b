// Package middleware wraps the handling of websocket events with
// observability.
//
// Each decoded event runs through a chain of Middleware before the session
// applies it to its page:
//
//	chain := middleware.Chain{
//	    middleware.OpenTelemetry(middleware.WithTracerName("livevalidate")),
//	    metrics.Middleware(),
//	}
//	err := chain.Run(ec, func() error { return session.apply(ec) })
//
// # Prometheus Metrics
//
// Metrics collected (namespace "livevalidate" by default):
//   - events_total{type,status}: events processed
//   - event_duration_seconds{type}: event processing time
//   - event_errors_total{type,error_type}: failed events by category
//   - patches_sent_total: patches sent to clients
//   - active_sessions: open websocket sessions
//   - field_checks_total{rule,outcome}: field validations
//   - submissions_total{outcome}: guarded form submissions
//
// Metrics also implements validate.Observer, so the validator reports field
// and submit outcomes directly.
//
// # OpenTelemetry
//
// OpenTelemetry starts a span per event with the event type, target HID,
// page and session. The span context replaces EventCtx.Context so downstream
// calls join the trace. The global tracer provider is used; configure it
// before starting the server.
package middleware
