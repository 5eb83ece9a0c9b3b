package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sigrams/livevalidate/internal/config"
	"github.com/sigrams/livevalidate/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, lookupEnv: os.LookupEnv}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		errors.Print(stderr, err)
		return 1
	}
	return 0
}

// app carries the state shared by all commands.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv config.LookupFunc

	configPath string
	envFiles   []string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "livevalidate",
		Short: "Server-driven HTML form validation",
		Long: `livevalidate validates HTML forms from the server.

Pages with forms marked data-validate are served with a thin client
that forwards input, blur and submit events over a websocket. The
server checks the standard constraint attributes and patches error
messages and state classes back into the page.

The same checks run offline with "livevalidate check".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.noColor {
				errors.DisableColors()
			}
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default ./"+config.FileName+" if present)")
	rootCmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "Environment files to load (default .env if present)")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		serveCmd(a),
		checkCmd(a),
		pagesCmd(a),
		versionCmd(a),
	)
	return rootCmd
}

// load reads env files and the config, then installs the logger.
func (a *app) load() error {
	lookup, err := a.envLookup()
	if err != nil {
		return err
	}

	var cfg *config.Config
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg)
	slog.SetDefault(a.logger)
	if cfg.Path() != "" {
		a.logger.Debug("config loaded", "path", cfg.Path())
	}
	return nil
}

// envLookup returns a lookup that prefers the process environment and
// falls back to the env files. The process environment is not modified.
func (a *app) envLookup() (config.LookupFunc, error) {
	files := a.envFiles
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return a.lookupEnv, nil
		}
		files = []string{".env"}
	}

	vars, err := godotenv.Read(files...)
	if err != nil {
		return nil, errors.New("E104").Wrap(err)
	}
	return func(key string) (string, bool) {
		if v, ok := a.lookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

// newLogger builds the slog logger described by cfg.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	var h slog.Handler
	if cfg.Logging.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
