package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sigrams/livevalidate/internal/errors"
	"github.com/sigrams/livevalidate/pkg/domui"
	"github.com/sigrams/livevalidate/pkg/pages"
	"github.com/sigrams/livevalidate/pkg/protocol"
	"github.com/sigrams/livevalidate/pkg/validate"
)

const (
	// FileName is the name of the configuration file.
	FileName = "livevalidate.yaml"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultPagesDir is used when neither a directory nor a bucket is set.
	DefaultPagesDir = "pages"

	// DefaultMaxMessageSize is the websocket read limit. It sits above the
	// largest protocol frame so an oversized frame is refused with an error
	// frame rather than a closed connection.
	DefaultMaxMessageSize = 1 << 20
)

// Config is the complete livevalidate configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Pages      PagesConfig      `yaml:"pages"`
	Validation ValidationConfig `yaml:"validation"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Logging    LoggingConfig    `yaml:"logging"`

	path string
}

// ServerConfig configures the HTTP and websocket server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxMessageSize caps a single websocket message in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`

	// AllowedOrigins lists the origins accepted for websocket upgrades.
	// Empty means same-origin only; "*" accepts any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// PagesConfig selects where pages are read from. S3 wins when a bucket is
// set.
type PagesConfig struct {
	Dir string   `yaml:"dir"`
	S3  S3Config `yaml:"s3"`
}

// S3Config configures the S3 page store.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	UsePathStyle    bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	MaxPageSize     int64  `yaml:"max_page_size"`
}

// ValidationConfig configures messages and presentation.
type ValidationConfig struct {
	// Locale picks the built-in message catalog ("en", "es").
	Locale string `yaml:"locale"`

	// Messages override individual catalog entries.
	Messages validate.Messages `yaml:"messages"`

	Marker           string   `yaml:"marker"`
	ContainerClasses []string `yaml:"container_classes"`
	ErrorClasses     []string `yaml:"error_classes"`
	ValidClass       string   `yaml:"valid_class"`
	InvalidClass     string   `yaml:"invalid_class"`
	ScrollBlock      string   `yaml:"scroll_block"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry spans for websocket events.
//
// Exporter "stdout" writes finished spans as JSON to stderr. Exporter "none"
// uses the global tracer provider, which the embedding program installs.
type TracingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	TracerName string `yaml:"tracer_name"`
	Exporter   string `yaml:"exporter"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// New creates a Config with default values.
func New() *Config {
	ui := domui.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxMessageSize:  DefaultMaxMessageSize,
		},
		Pages: PagesConfig{
			Dir: DefaultPagesDir,
		},
		Validation: ValidationConfig{
			Locale:           "en",
			Marker:           ui.Marker,
			ContainerClasses: ui.ContainerClasses,
			ErrorClasses:     ui.ErrorClasses,
			ValidClass:       ui.ValidClass,
			InvalidClass:     ui.InvalidClass,
			ScrollBlock:      ui.ScrollBlock,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "livevalidate",
		},
		Tracing: TracingConfig{
			TracerName: "livevalidate",
			Exporter:   "stdout",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads FileName from dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No config file at " + path).
				WithSuggestion("Pass an existing file with --config or omit the flag to use defaults")
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.WithLocationFromYAML(path, e.Wrapped)
		}
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := New()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New("E101").
			Wrap(err).
			WithSuggestion(`Durations are strings such as "10s"; lists use [a, b] or one "- item" per line`)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// applyDefaults fills settings a file left empty.
func (c *Config) applyDefaults() {
	d := New()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = d.Server.MaxMessageSize
	}
	if c.Pages.Dir == "" && c.Pages.S3.Bucket == "" {
		c.Pages.Dir = d.Pages.Dir
	}
	if c.Validation.Locale == "" {
		c.Validation.Locale = d.Validation.Locale
	}
	if c.Validation.Marker == "" {
		c.Validation.Marker = d.Validation.Marker
	}
	if len(c.Validation.ContainerClasses) == 0 {
		c.Validation.ContainerClasses = d.Validation.ContainerClasses
	}
	if len(c.Validation.ErrorClasses) == 0 {
		c.Validation.ErrorClasses = d.Validation.ErrorClasses
	}
	if c.Validation.ValidClass == "" {
		c.Validation.ValidClass = d.Validation.ValidClass
	}
	if c.Validation.InvalidClass == "" {
		c.Validation.InvalidClass = d.Validation.InvalidClass
	}
	if c.Validation.ScrollBlock == "" {
		c.Validation.ScrollBlock = d.Validation.ScrollBlock
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = d.Tracing.TracerName
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = d.Tracing.Exporter
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

var scrollBlocks = map[string]bool{"start": true, "center": true, "end": true, "nearest": true}

// Validate checks the configuration for bad values.
func (c *Config) Validate() error {
	invalid := func(detail, suggestion string) error {
		return errors.New("E102").WithDetail(detail).WithSuggestion(suggestion)
	}

	switch {
	case c.Server.Addr == "":
		return invalid("server.addr is empty", `Use a listen address such as ":8080"`)
	case c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0:
		return invalid("server timeouts must not be negative", "Use 0 to disable a timeout")
	case c.Server.MaxMessageSize < protocol.FrameHeaderSize+protocol.MaxPayloadSize:
		return invalid("server.max_message_size is smaller than a full frame",
			"Leave it unset to accept any frame")
	}

	if c.Pages.S3.Bucket == "" && c.Pages.Dir == "" {
		return invalid("pages needs a dir or an s3 bucket", "Set pages.dir: ./pages")
	}
	if c.Pages.S3.Bucket != "" && c.Pages.S3.Region == "" && c.Pages.S3.Endpoint == "" {
		return invalid("pages.s3 needs a region or an endpoint", "Set pages.s3.region: us-east-1")
	}
	if (c.Pages.S3.AccessKeyID == "") != (c.Pages.S3.SecretAccessKey == "") {
		return invalid("pages.s3 access_key_id and secret_access_key must be set together",
			"Set both keys or neither")
	}
	if c.Pages.S3.MaxPageSize < 0 {
		return invalid("pages.s3.max_page_size must not be negative", "Use 0 for the default")
	}

	if _, ok := validate.Catalog(c.Validation.Locale); !ok {
		return invalid("unknown validation.locale "+c.Validation.Locale,
			"Use one of: "+strings.Join(validate.Locales(), ", "))
	}
	if !scrollBlocks[c.Validation.ScrollBlock] {
		return invalid("unknown validation.scroll_block "+c.Validation.ScrollBlock,
			"Use start, center, end or nearest")
	}
	if strings.ContainsAny(c.Validation.Marker, " \t\n=\"'<>/") {
		return invalid("validation.marker is not a valid attribute name", "Use a name such as data-validate")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with /", "Set metrics.path: /metrics")
	}

	if c.Tracing.Exporter != "stdout" && c.Tracing.Exporter != "none" {
		return invalid("unknown tracing.exporter "+c.Tracing.Exporter, "Use stdout or none")
	}

	if _, ok := parseLevel(c.Logging.Level); !ok {
		return invalid("unknown logging.level "+c.Logging.Level, "Use debug, info, warn or error")
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return invalid("unknown logging.format "+c.Logging.Format, "Use text or json")
	}
	return nil
}

// Messages returns the locale's catalog with the configured overrides.
func (c *Config) Messages() validate.Messages {
	base, ok := validate.Catalog(c.Validation.Locale)
	if !ok {
		base = validate.DefaultMessages()
	}
	return base.Merge(c.Validation.Messages)
}

// UI returns the presentation settings for a domui.Host.
func (c *Config) UI(logger *slog.Logger) domui.Config {
	return domui.Config{
		Marker:           c.Validation.Marker,
		ContainerClasses: c.Validation.ContainerClasses,
		ErrorClasses:     c.Validation.ErrorClasses,
		ValidClass:       c.Validation.ValidClass,
		InvalidClass:     c.Validation.InvalidClass,
		ScrollBlock:      c.Validation.ScrollBlock,
		Logger:           logger,
	}
}

// Store builds the configured page store.
func (c *Config) Store() pages.Store {
	if s3c := c.Pages.S3; s3c.Bucket != "" {
		client := pages.NewS3Client(pages.S3Options{
			Region:          s3c.Region,
			Endpoint:        s3c.Endpoint,
			UsePathStyle:    s3c.UsePathStyle,
			AccessKeyID:     s3c.AccessKeyID,
			SecretAccessKey: s3c.SecretAccessKey,
		})
		return pages.NewS3Store(client, s3c.Bucket, s3c.Prefix).WithMaxSize(s3c.MaxPageSize)
	}
	return pages.NewDirStore(c.Pages.Dir)
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.Logging.Level)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
