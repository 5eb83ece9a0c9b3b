package middleware

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sigrams/livevalidate/pkg/validate"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "livevalidate").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "livevalidate",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors. It is safe for concurrent use.
type Metrics struct {
	eventsTotal    *prometheus.CounterVec
	eventDuration  *prometheus.HistogramVec
	eventErrors    *prometheus.CounterVec
	patchesSent    prometheus.Counter
	activeSessions prometheus.Gauge
	fieldChecks    *prometheus.CounterVec
	submissions    *prometheus.CounterVec
}

var _ validate.Observer = (*Metrics)(nil)

// NewMetrics registers the collectors with the configured registry.
// Registering twice with the same registry panics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of client events processed",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "status"}),

		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_duration_seconds",
			Help:        "Event processing duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"type"}),

		eventErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_errors_total",
			Help:        "Total number of event processing errors",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "error_type"}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_sent_total",
			Help:        "Total number of patches sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		fieldChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "field_checks_total",
			Help:        "Total number of field validations by deciding rule",
			ConstLabels: config.ConstLabels,
		}, []string{"rule", "outcome"}),

		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "submissions_total",
			Help:        "Total number of guarded form submissions",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),
	}
}

// Middleware returns a Middleware that counts and times events.
func (m *Metrics) Middleware() Middleware {
	return MiddlewareFunc(func(ctx *EventCtx, next func() error) error {
		eventType := ctx.EventType()
		start := time.Now()

		err := next()

		m.eventDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
		status := "success"
		if err != nil {
			status = "error"
			m.eventErrors.WithLabelValues(eventType, categorizeError(err)).Inc()
		}
		m.eventsTotal.WithLabelValues(eventType, status).Inc()
		return err
	})
}

// categorizeError maps an error to a low-cardinality label.
func categorizeError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "protocol"):
		return "protocol"
	case strings.Contains(msg, "websocket"):
		return "websocket"
	default:
		return "internal"
	}
}

// RecordPatches adds count to the patches sent.
func (m *Metrics) RecordPatches(count int) {
	m.patchesSent.Add(float64(count))
}

// SessionStarted records a new websocket session.
func (m *Metrics) SessionStarted() {
	m.activeSessions.Inc()
}

// SessionEnded records a closed websocket session.
func (m *Metrics) SessionEnded() {
	m.activeSessions.Dec()
}

// FieldChecked implements validate.Observer.
func (m *Metrics) FieldChecked(_ validate.Field, r validate.Result) {
	rule, outcome := string(r.Rule), "fail"
	if r.Valid {
		rule, outcome = "none", "pass"
	}
	m.fieldChecks.WithLabelValues(rule, outcome).Inc()
}

// SubmitGuarded implements validate.Observer.
func (m *Metrics) SubmitGuarded(allowed bool) {
	outcome := "blocked"
	if allowed {
		outcome = "allowed"
	}
	m.submissions.WithLabelValues(outcome).Inc()
}
