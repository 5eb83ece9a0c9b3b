package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sigrams/livevalidate/internal/config"
	"github.com/sigrams/livevalidate/internal/errors"
	"github.com/sigrams/livevalidate/pkg/domui"
	"github.com/sigrams/livevalidate/pkg/middleware"
	"github.com/sigrams/livevalidate/pkg/protocol"
)

const signupPage = `<!DOCTYPE html>
<html><head><title>Signup</title></head><body>
<form data-validate>
  <div class="mb-3"><input name="email" type="email" required></div>
  <div class="mb-3"><input name="age" type="number" min="18"></div>
  <button type="submit">Go</button>
</form>
</body></html>`

func noEnv(string) (string, bool) { return "", false }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// setup writes a pages directory and a config pointing at it.
func setup(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, dir, "site/signup.html", signupPage)
	writeFile(t, dir, "site/account/plain.html", `<p>hi</p>`)
	configPath = writeFile(t, dir, config.FileName,
		"pages:\n  dir: "+filepath.Join(dir, "site")+"\nlogging:\n  level: error\n")
	return dir, configPath
}

func execute(t *testing.T, lookup config.LookupFunc, args ...string) (*app, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{stdout: &stdout, stderr: &stderr, lookupEnv: lookup}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return a, stdout.String(), err
}

func errorCode(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func TestCheckInvalid(t *testing.T) {
	dir, cfg := setup(t)
	page := filepath.Join(dir, "site", "signup.html")

	_, out, err := execute(t, noEnv, "--config", cfg, "check", page, "--set", "email=nope", "--set", "age=20")
	if got := errorCode(err); got != "E303" {
		t.Fatalf("error = %v, want E303", err)
	}
	for _, want := range []string{
		"  ✗ email  email: Invalid email format.\n",
		"  ✓ age\n",
		"2 fields, form invalid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckValidFromStore(t *testing.T) {
	dir, cfg := setup(t)
	values := writeFile(t, dir, "values.yaml", "email: a@b.co\nage: 20\n")
	annotated := filepath.Join(dir, "out.html")

	_, out, err := execute(t, noEnv, "--config", cfg, "check", "signup", "--values", values, "--out", annotated)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "2 fields, form valid") {
		t.Errorf("output = %q", out)
	}

	html, err := os.ReadFile(annotated)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`class="is-valid"`, `value="a@b.co"`, `value="20"`} {
		if !strings.Contains(string(html), want) {
			t.Errorf("annotated page missing %q", want)
		}
	}
}

func TestCheckJSON(t *testing.T) {
	dir, cfg := setup(t)
	page := filepath.Join(dir, "site", "signup.html")

	_, out, err := execute(t, noEnv, "--config", cfg, "check", page, "--json", "--locale", "es", "--set", "age=5")
	if errorCode(err) != "E303" {
		t.Fatalf("error = %v, want E303", err)
	}

	var report domui.FormReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	got := []string{}
	for _, f := range report.Fields {
		got = append(got, f.Name+"="+f.Message)
	}
	want := []string{"email=Este campo es requerido.", "age=El valor mínimo es 18."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if report.FirstInvalid != "email" {
		t.Errorf("FirstInvalid = %q", report.FirstInvalid)
	}
}

func TestCheckErrors(t *testing.T) {
	dir, cfg := setup(t)
	page := filepath.Join(dir, "site", "signup.html")
	badYAML := writeFile(t, dir, "bad.yaml", "email: [1, 2\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"set without equals", []string{"check", page, "--set", "email"}, "E301"},
		{"set without name", []string{"check", page, "--set", "=x"}, "E301"},
		{"missing values file", []string{"check", page, "--values", filepath.Join(dir, "nope.yaml")}, "E302"},
		{"malformed values file", []string{"check", page, "--values", badYAML}, "E302"},
		{"form index out of range", []string{"check", page, "--form", "3"}, "E300"},
		{"unmarked page", []string{"check", "account/plain"}, "E300"},
		{"unknown page", []string{"check", "missing"}, "E200"},
		{"invalid page name", []string{"check", "../outside"}, "E201"},
		{"unknown locale", []string{"check", page, "--locale", "xx"}, "E102"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, noEnv, append([]string{"--config", cfg}, tt.args...)...)
			if got := errorCode(err); got != tt.want {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestPagesCommand(t *testing.T) {
	_, cfg := setup(t)

	_, out, err := execute(t, noEnv, "--config", cfg, "pages")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("account/plain\nsignup\n", out); diff != "" {
		t.Errorf("pages output mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvFiles(t *testing.T) {
	dir, cfg := setup(t)
	envFile := writeFile(t, dir, "test.env", "LIVEVALIDATE_LOG_FORMAT=json\nLIVEVALIDATE_ADDR=:9999\n")

	a, _, err := execute(t, noEnv, "--config", cfg, "--env-file", envFile, "pages")
	if err != nil {
		t.Fatal(err)
	}
	if a.cfg.Logging.Format != "json" || a.cfg.Server.Addr != ":9999" {
		t.Errorf("env file not applied: %+v %+v", a.cfg.Logging, a.cfg.Server)
	}

	processEnv := func(key string) (string, bool) {
		if key == "LIVEVALIDATE_ADDR" {
			return ":7000", true
		}
		return "", false
	}
	a, _, err = execute(t, processEnv, "--config", cfg, "--env-file", envFile, "pages")
	if err != nil {
		t.Fatal(err)
	}
	if a.cfg.Server.Addr != ":7000" {
		t.Errorf("process environment should win, Addr = %q", a.cfg.Server.Addr)
	}

	_, _, err = execute(t, noEnv, "--config", cfg, "--env-file", filepath.Join(dir, "missing.env"), "pages")
	if errorCode(err) != "E104" {
		t.Errorf("missing env file error = %v, want E104", err)
	}

	badEnv := func(key string) (string, bool) {
		if key == "LIVEVALIDATE_READ_TIMEOUT" {
			return "soon", true
		}
		return "", false
	}
	_, _, err = execute(t, badEnv, "--config", cfg, "pages")
	if errorCode(err) != "E103" {
		t.Errorf("bad override error = %v, want E103", err)
	}
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "server:\n  addr: \":1\"\n  read_timeout: 5\n")
	invalid := writeFile(t, dir, "invalid.yaml", "logging:\n  level: loud\n")

	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(dir, "missing.yaml"), "E100"},
		{bad, "E101"},
		{invalid, "E102"},
	}
	for _, tt := range tests {
		_, _, err := execute(t, noEnv, "--config", tt.path, "pages")
		if got := errorCode(err); got != tt.want {
			t.Errorf("--config %s: error = %v, want %s", filepath.Base(tt.path), err, tt.want)
		}
	}
}

func TestVersion(t *testing.T) {
	_, out, err := execute(t, noEnv, "--config", "/does/not/exist.yaml", "version", "--short")
	if err != nil {
		t.Fatalf("version should not load config: %v", err)
	}
	if out != "dev\n" {
		t.Errorf("version --short = %q", out)
	}
}

func TestRunExitCode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--no-color", "--config", "/does/not/exist.yaml", "pages"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "ERROR E100: Config file not found") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestServerConfig(t *testing.T) {
	cfg := config.New()
	cfg.Server.Addr = ":9000"
	cfg.Server.ReadTimeout = 3 * time.Second
	cfg.Server.AllowedOrigins = []string{"https://app.example"}
	cfg.Tracing.Enabled = true
	cfg.Validation.InvalidClass = "bad"
	a := &app{logger: newLogger(&bytes.Buffer{}, cfg)}

	sc := serverConfig(cfg, a, nil)
	if sc.Address != ":9000" || sc.ReadTimeout != 3*time.Second || sc.SessionConfig.MaxMessageSize != cfg.Server.MaxMessageSize {
		t.Errorf("server settings not mapped: %+v", sc)
	}
	if sc.Metrics == nil || sc.Gatherer == nil || sc.MetricsPath != "/metrics" {
		t.Error("metrics should be enabled by default")
	}
	if sc.CheckOrigin == nil || len(sc.EventMiddleware) != 1 {
		t.Errorf("origin check or tracing middleware missing: %+v", sc)
	}
	if sc.UI.InvalidClass != "bad" || sc.Messages.Required != "This field is required." {
		t.Errorf("validation settings not mapped: %+v", sc.UI)
	}

	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = false
	if sc := serverConfig(cfg, a, nil); sc.Metrics != nil || sc.Gatherer != nil || len(sc.EventMiddleware) != 0 {
		t.Error("disabled metrics and tracing should not be wired")
	}
}

func TestTracingExport(t *testing.T) {
	cfg := config.New()
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = true
	a := &app{logger: newLogger(&bytes.Buffer{}, cfg)}

	var spans bytes.Buffer
	tp, err := newTracerProvider(&spans, cfg.Tracing)
	if err != nil {
		t.Fatalf("newTracerProvider() error = %v", err)
	}
	sc := serverConfig(cfg, a, tp)
	if len(sc.EventMiddleware) != 1 {
		t.Fatalf("EventMiddleware = %d, want 1", len(sc.EventMiddleware))
	}

	ec := middleware.NewEventCtx(context.Background(), "signup", "s1", &protocol.Event{Type: protocol.EventBlur, HID: "h3"})
	if err := middleware.Chain(sc.EventMiddleware).Run(ec, func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	for _, want := range []string{`"Name":"livevalidate.Blur"`, `"Value":"signup"`, `"Value":"livevalidate"`} {
		if !strings.Contains(spans.String(), want) {
			t.Errorf("exported spans missing %s:\n%s", want, spans.String())
		}
	}
}

func TestNewLogger(t *testing.T) {
	cfg := config.New()
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "warn"

	var buf bytes.Buffer
	logger := newLogger(&buf, cfg)
	logger.Info("hidden")
	logger.Warn("shown", "page", "signup")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q", buf.String())
	}
	if entry["msg"] != "shown" || entry["page"] != "signup" {
		t.Errorf("entry = %v", entry)
	}
}
