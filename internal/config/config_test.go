package config

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sigrams/livevalidate/internal/errors"
	"github.com/sigrams/livevalidate/pkg/pages"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Server.MaxMessageSize != DefaultMaxMessageSize {
		t.Errorf("Server.MaxMessageSize = %d, want %d", cfg.Server.MaxMessageSize, DefaultMaxMessageSize)
	}
	if cfg.Pages.Dir != DefaultPagesDir {
		t.Errorf("Pages.Dir = %q, want %q", cfg.Pages.Dir, DefaultPagesDir)
	}
	if cfg.Validation.Marker != "data-validate" || cfg.Validation.InvalidClass != "is-invalid" {
		t.Errorf("Validation = %+v", cfg.Validation)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() without a file: %v", err)
	}
	if cfg.Path() != "" || cfg.Server.Addr != DefaultAddr {
		t.Errorf("missing file should give defaults, got %+v", cfg.Server)
	}

	path := writeFile(t, dir, `
server:
  addr: "127.0.0.1:9000"
  read_timeout: 3s
  allowed_origins: [https://a.example, https://b.example]
pages:
  dir: ./forms
validation:
  locale: es
  messages:
    required: "Obligatorio."
  container_classes: [field]
logging:
  level: debug
  format: json
`)
	cfg, err = Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want default 10s", cfg.Server.WriteTimeout)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins); diff != "" {
		t.Errorf("AllowedOrigins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Pages.Dir != "./forms" {
		t.Errorf("Pages.Dir = %q", cfg.Pages.Dir)
	}
	if diff := cmp.Diff([]string{"field"}, cfg.Validation.ContainerClasses); diff != "" {
		t.Errorf("ContainerClasses mismatch (-want +got):\n%s", diff)
	}
	if len(cfg.Validation.ErrorClasses) != 4 {
		t.Errorf("ErrorClasses should keep defaults, got %v", cfg.Validation.ErrorClasses)
	}
	if cfg.Level() != slog.LevelDebug || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != "E100" {
		t.Fatalf("LoadFile(missing) error = %v, want E100", err)
	}

	path := writeFile(t, dir, "server:\n  addr: \":1\"\n  read_timeout: 10\n")
	_, err = LoadFile(path)
	if !stderrors.As(err, &e) || e.Code != "E101" {
		t.Fatalf("LoadFile(bad duration) error = %v, want E101", err)
	}
	if e.Location == nil || e.Location.Line != 3 {
		t.Errorf("Location = %+v, want line 3", e.Location)
	}

	writeFile(t, dir, "serverr:\n  addr: x\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("unknown keys should be rejected")
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if diff := cmp.Diff(New().Server, cfg.Server); diff != "" {
		t.Errorf("Server mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		detail string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"negative timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, "timeouts"},
		{"tiny messages", func(c *Config) { c.Server.MaxMessageSize = 2 }, "max_message_size"},
		{"no pages", func(c *Config) { c.Pages.Dir = "" }, "dir or an s3 bucket"},
		{"s3 without region", func(c *Config) { c.Pages.S3.Bucket = "b" }, "region or an endpoint"},
		{"half keys", func(c *Config) {
			c.Pages.S3 = S3Config{Bucket: "b", Region: "us-east-1", AccessKeyID: "id"}
		}, "set together"},
		{"unknown locale", func(c *Config) { c.Validation.Locale = "fr" }, "validation.locale"},
		{"scroll block", func(c *Config) { c.Validation.ScrollBlock = "middle" }, "scroll_block"},
		{"marker", func(c *Config) { c.Validation.Marker = "data validate" }, "marker"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
		{"tracing exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Code != "E102" {
				t.Fatalf("Validate() error = %v, want E102", err)
			}
			if !strings.Contains(e.Detail, tt.detail) {
				t.Errorf("Detail = %q, want it to mention %q", e.Detail, tt.detail)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LIVEVALIDATE_ADDR":            ":9999",
		"LIVEVALIDATE_WRITE_TIMEOUT":   "2s",
		"LIVEVALIDATE_ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"LIVEVALIDATE_S3_BUCKET":       "forms",
		"LIVEVALIDATE_S3_REGION":       "eu-west-1",
		"LIVEVALIDATE_S3_PATH_STYLE":   "true",
		"LIVEVALIDATE_METRICS_ENABLED": "false",
		"LIVEVALIDATE_LOCALE":          "  ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := New()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Server.Addr != ":9999" || cfg.Server.WriteTimeout != 2*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins); diff != "" {
		t.Errorf("AllowedOrigins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Pages.S3.Bucket != "forms" || !cfg.Pages.S3.UsePathStyle {
		t.Errorf("S3 = %+v", cfg.Pages.S3)
	}
	if cfg.Metrics.Enabled {
		t.Error("METRICS_ENABLED=false should disable metrics")
	}
	if cfg.Validation.Locale != "en" {
		t.Errorf("blank LOCALE should be ignored, got %q", cfg.Validation.Locale)
	}
	if _, ok := cfg.Store().(*pages.S3Store); !ok {
		t.Errorf("Store() = %T, want *pages.S3Store", cfg.Store())
	}

	bad := New()
	err := bad.ApplyEnv(func(k string) (string, bool) {
		if k == "LIVEVALIDATE_READ_TIMEOUT" {
			return "soon", true
		}
		return "", false
	})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != "E103" || !strings.Contains(e.Detail, "LIVEVALIDATE_READ_TIMEOUT") {
		t.Errorf("ApplyEnv(bad) error = %v", err)
	}

	for _, name := range EnvNames() {
		if !strings.HasPrefix(name, EnvPrefix) {
			t.Errorf("EnvNames() contains %q", name)
		}
	}
}

func TestMessagesAndUI(t *testing.T) {
	cfg := New()
	cfg.Validation.Locale = "es-AR"
	cfg.Validation.Messages.Required = "Obligatorio."
	msgs := cfg.Messages()
	if msgs.Required != "Obligatorio." {
		t.Errorf("Required = %q", msgs.Required)
	}
	if msgs.Email != "Formato de email inválido." {
		t.Errorf("Email = %q, want the es catalog", msgs.Email)
	}

	cfg.Validation.ValidClass = "ok"
	ui := cfg.UI(nil)
	if ui.ValidClass != "ok" || ui.Marker != "data-validate" {
		t.Errorf("UI() = %+v", ui)
	}
}

func TestStoreDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "signup.html"), []byte("<form></form>"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := New()
	cfg.Pages.Dir = dir

	store := cfg.Store()
	data, err := store.Open(context.Background(), "signup")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if string(data) != "<form></form>" {
		t.Errorf("Open() = %q", data)
	}
	if _, err := store.Open(context.Background(), "missing"); !stderrors.Is(err, pages.ErrNotFound) && !stderrors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(missing) error = %v", err)
	}
}
