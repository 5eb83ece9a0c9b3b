package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/sigrams/livevalidate/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LIVEVALIDATE_"

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envVar struct {
	name string
	set  func(c *Config, v string) error
}

func stringVar(field func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func durationVar(field func(c *Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func boolVar(field func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func listVar(field func(c *Config) *[]string) func(*Config, string) error {
	return func(c *Config, v string) error {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*field(c) = out
		return nil
	}
}

var envVars = []envVar{
	{"ADDR", stringVar(func(c *Config) *string { return &c.Server.Addr })},
	{"READ_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.Server.ReadTimeout })},
	{"WRITE_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.Server.WriteTimeout })},
	{"SHUTDOWN_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.Server.ShutdownTimeout })},
	{"MAX_MESSAGE_SIZE", func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.Server.MaxMessageSize = n
		return nil
	}},
	{"ALLOWED_ORIGINS", listVar(func(c *Config) *[]string { return &c.Server.AllowedOrigins })},
	{"PAGES_DIR", stringVar(func(c *Config) *string { return &c.Pages.Dir })},
	{"S3_BUCKET", stringVar(func(c *Config) *string { return &c.Pages.S3.Bucket })},
	{"S3_PREFIX", stringVar(func(c *Config) *string { return &c.Pages.S3.Prefix })},
	{"S3_REGION", stringVar(func(c *Config) *string { return &c.Pages.S3.Region })},
	{"S3_ENDPOINT", stringVar(func(c *Config) *string { return &c.Pages.S3.Endpoint })},
	{"S3_PATH_STYLE", boolVar(func(c *Config) *bool { return &c.Pages.S3.UsePathStyle })},
	{"S3_ACCESS_KEY_ID", stringVar(func(c *Config) *string { return &c.Pages.S3.AccessKeyID })},
	{"S3_SECRET_ACCESS_KEY", stringVar(func(c *Config) *string { return &c.Pages.S3.SecretAccessKey })},
	{"LOCALE", stringVar(func(c *Config) *string { return &c.Validation.Locale })},
	{"MARKER", stringVar(func(c *Config) *string { return &c.Validation.Marker })},
	{"METRICS_ENABLED", boolVar(func(c *Config) *bool { return &c.Metrics.Enabled })},
	{"METRICS_PATH", stringVar(func(c *Config) *string { return &c.Metrics.Path })},
	{"TRACING_ENABLED", boolVar(func(c *Config) *bool { return &c.Tracing.Enabled })},
	{"TRACING_EXPORTER", stringVar(func(c *Config) *string { return &c.Tracing.Exporter })},
	{"LOG_LEVEL", stringVar(func(c *Config) *string { return &c.Logging.Level })},
	{"LOG_FORMAT", stringVar(func(c *Config) *string { return &c.Logging.Format })},
}

// EnvNames lists the supported environment variables.
func EnvNames() []string {
	names := make([]string, len(envVars))
	for i, ev := range envVars {
		names[i] = EnvPrefix + ev.name
	}
	return names
}

// ApplyEnv overrides settings from LIVEVALIDATE_* variables. Empty values
// are ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, ev := range envVars {
		key := EnvPrefix + ev.name
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := ev.set(c, strings.TrimSpace(v)); err != nil {
			return errors.New("E103").
				WithDetail(key + " has an invalid value").
				Wrap(err)
		}
	}
	return nil
}
