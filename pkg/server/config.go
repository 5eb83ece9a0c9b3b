package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sigrams/livevalidate/pkg/domui"
	"github.com/sigrams/livevalidate/pkg/middleware"
	"github.com/sigrams/livevalidate/pkg/validate"
)

// SessionConfig configures websocket sessions.
type SessionConfig struct {
	// ReadTimeout is how long a session may stay silent. Pongs count as
	// activity.
	ReadTimeout time.Duration

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration

	// HeartbeatInterval is the ping period. It must be shorter than
	// ReadTimeout.
	HeartbeatInterval time.Duration

	// MaxMessageSize caps a single websocket message in bytes. A larger
	// message closes the session. Messages within it that exceed the
	// protocol's frame size get an ErrInvalidFrame reply instead.
	MaxMessageSize int64
}

// DefaultMaxMessageSize leaves room above the largest protocol frame so
// oversized frames can be refused without dropping the connection.
const DefaultMaxMessageSize = 1 << 20

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    DefaultMaxMessageSize,
	}
}

// ServerConfig configures the Server.
type ServerConfig struct {
	Address string

	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration

	// ShutdownTimeout bounds graceful shutdown in Run.
	ShutdownTimeout time.Duration

	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates websocket upgrade origins. Defaults to
	// SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	SessionConfig *SessionConfig

	// UI controls form recognition and presentation.
	UI domui.Config

	// Messages overrides the default English messages.
	Messages validate.Messages

	// Metrics, when set, records events, sessions and validation outcomes.
	Metrics *middleware.Metrics

	// MetricsPath serves Gatherer when both are set.
	MetricsPath string
	Gatherer    prometheus.Gatherer

	// EventMiddleware runs around every websocket event, inside the
	// metrics middleware.
	EventMiddleware []middleware.Middleware

	Logger *slog.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":8080",
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		SessionConfig:     DefaultSessionConfig(),
		UI:                domui.DefaultConfig(),
		MetricsPath:       "/metrics",
		Logger:            slog.Default(),
	}
}

// withDefaults fills unset fields from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	d := DefaultServerConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.SessionConfig == nil {
		out.SessionConfig = d.SessionConfig
	} else {
		sc := *out.SessionConfig
		ds := DefaultSessionConfig()
		if sc.ReadTimeout == 0 {
			sc.ReadTimeout = ds.ReadTimeout
		}
		if sc.WriteTimeout == 0 {
			sc.WriteTimeout = ds.WriteTimeout
		}
		if sc.HeartbeatInterval == 0 || sc.HeartbeatInterval >= sc.ReadTimeout {
			sc.HeartbeatInterval = sc.ReadTimeout / 2
		}
		if sc.MaxMessageSize == 0 {
			sc.MaxMessageSize = ds.MaxMessageSize
		}
		out.SessionConfig = &sc
	}
	if out.UI.Marker == "" {
		out.UI.Marker = d.UI.Marker
	}
	if out.MetricsPath == "" {
		out.MetricsPath = d.MetricsPath
	}
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	return &out
}

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host matches the Host header.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// AllowOrigins returns an origin check that accepts the same origin plus
// the listed origins. A "*" entry accepts every origin.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		if SameOriginCheck(r) {
			return true
		}
		return allowed[strings.ToLower(r.Header.Get("Origin"))]
	}
}
