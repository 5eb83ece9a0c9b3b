package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sigrams/livevalidate/internal/errors"
	"github.com/sigrams/livevalidate/pkg/dom"
	"github.com/sigrams/livevalidate/pkg/domui"
	"github.com/sigrams/livevalidate/pkg/pages"
	"github.com/sigrams/livevalidate/pkg/validate"
)

type checkOptions struct {
	sets       []string
	valuesFile string
	form       int
	out        string
	json       bool
	locale     string
}

func checkCmd(a *app) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check <page>",
		Short: "Validate a form offline",
		Long: `Validate a marked form with the given values and report every field.

<page> is an HTML file, or the name of a page in the configured store
when no such file exists. Values given with --set win over --values.
The command exits non-zero when the form is invalid.

Examples:
  livevalidate check signup.html --set email=a@b.co --set age=20
  livevalidate check signup --values values.yaml --out annotated.html
  livevalidate check signup.html --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "Field value as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.valuesFile, "values", "", "YAML file mapping field names to values")
	cmd.Flags().IntVar(&opts.form, "form", 0, "Index of the marked form to validate")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the annotated page to this file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the report as JSON")
	cmd.Flags().StringVar(&opts.locale, "locale", "", "Message locale (default from config)")

	return cmd
}

func runCheck(cmd *cobra.Command, a *app, page string, opts checkOptions) error {
	values, err := collectValues(opts)
	if err != nil {
		return err
	}

	messages := a.cfg.Messages()
	if opts.locale != "" {
		base, ok := validate.Catalog(opts.locale)
		if !ok {
			return errors.New("E102").
				WithDetail("Unknown locale " + opts.locale).
				WithSuggestion("Use one of: " + strings.Join(validate.Locales(), ", "))
		}
		messages = base.Merge(a.cfg.Validation.Messages)
	}

	doc, err := loadCheckPage(cmd, a, page)
	if err != nil {
		return err
	}

	host := domui.NewHost(doc, a.cfg.UI(a.logger.With("component", "domui")))
	form, err := host.MarkedForm(opts.form)
	if err != nil {
		return errors.New("E300").
			WithDetail(fmt.Sprintf("%s has no marked form at index %d", page, opts.form)).
			WithSuggestion(`Mark the form with ` + a.cfg.Validation.Marker + ` or pass a smaller --form`).
			Wrap(err)
	}
	host.ApplyValues(form, values)
	a.logger.Debug("values applied", "page", page, "fields", sortedKeys(values))

	checker := validate.NewChecker(validate.WithMessages(messages), validate.WithLogger(a.logger))
	v := validate.New[*dom.Node](host, checker)
	valid, results := v.ValidateFormResults(form)
	report := domui.NewFormReport(valid, results)

	if opts.out != "" {
		var buf bytes.Buffer
		if err := dom.Render(&buf, doc); err != nil {
			return err
		}
		if err := os.WriteFile(opts.out, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}

	if opts.json {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(a, report)
	}

	if !valid {
		failed := 0
		for _, f := range report.Fields {
			if !f.Valid {
				failed++
			}
		}
		return errors.New("E303").
			WithDetail(fmt.Sprintf("%d of %d fields failed; the first is %q.", failed, len(report.Fields), report.FirstInvalid))
	}
	return nil
}

// collectValues merges the --values file with --set arguments.
func collectValues(opts checkOptions) (map[string]string, error) {
	values := make(map[string]string)
	if opts.valuesFile != "" {
		data, err := os.ReadFile(opts.valuesFile)
		if err != nil {
			return nil, errors.New("E302").Wrap(err)
		}
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, errors.New("E302").
				Wrap(err).
				WithLocationFromYAML(opts.valuesFile, err).
				WithExample("email: a@b.co\nage: 20")
		}
		if values == nil {
			values = make(map[string]string)
		}
	}
	for _, s := range opts.sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, errors.New("E301").
				WithDetail(fmt.Sprintf("%q is not name=value", s)).
				WithExample("--set email=a@b.co")
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}

// loadCheckPage reads page from disk, or from the configured store when
// no such file exists.
func loadCheckPage(cmd *cobra.Command, a *app, page string) (*dom.Node, error) {
	data, err := os.ReadFile(page)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.New("E202").WithDetail("Reading " + page + " failed").Wrap(err)
		}
		data, err = a.cfg.Store().Open(cmd.Context(), page)
		switch {
		case stderrors.Is(err, pages.ErrNotFound):
			return nil, errors.New("E200").
				WithDetail(fmt.Sprintf("%s is neither a file nor a page in the store", page)).
				WithSuggestion("Run \"livevalidate pages\" to list the available pages").
				Wrap(err)
		case stderrors.Is(err, pages.ErrInvalidName):
			return nil, errors.New("E201").Wrap(err)
		case err != nil:
			return nil, errors.New("E202").Wrap(err)
		}
	}

	doc, err := dom.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New("E202").WithDetail("Parsing " + page + " failed").Wrap(err)
	}
	return doc, nil
}

func printReport(a *app, report domui.FormReport) {
	width := 0
	for _, f := range report.Fields {
		width = max(width, len(f.Name))
	}
	for _, f := range report.Fields {
		if f.Valid {
			fmt.Fprintf(a.stdout, "  ✓ %s\n", f.Name)
			continue
		}
		fmt.Fprintf(a.stdout, "  ✗ %-*s  %s: %s\n", width, f.Name, f.Rule, f.Message)
	}

	state := "valid"
	if !report.Valid {
		state = "invalid"
	}
	fmt.Fprintf(a.stdout, "\n%d fields, form %s\n", len(report.Fields), state)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
