package validate

import (
	"errors"
	"log/slog"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// patternTimeout bounds a single pattern match. Backtracking patterns from
// page markup can otherwise run for exponential time.
const patternTimeout = 100 * time.Millisecond

// emailPattern is a permissive local@domain.tld shape, not an RFC 5322
// grammar.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var (
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloat = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*(?:[eE][+-]?\d+)?|\.\d+(?:[eE][+-]?\d+)?)`)
)

// URL schemes that need an authority to be well formed.
var hierarchicalSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"ws":    true,
	"wss":   true,
}

// Checker evaluates the validation rules for a Field. It holds no per-field
// state and is safe for concurrent use.
type Checker struct {
	messages Messages
	logger   *slog.Logger
	patterns sync.Map // pattern source -> compiledPattern
}

type compiledPattern struct {
	re  *regexp2.Regexp
	err error
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithMessages replaces the message catalog.
func WithMessages(m Messages) CheckerOption {
	return func(c *Checker) {
		c.messages = DefaultMessages().Merge(m)
	}
}

// WithLogger sets the logger used to report malformed patterns.
func WithLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker creates a Checker with the English catalog.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		messages: DefaultMessages(),
		logger:   slog.Default().With("component", "validate"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Messages returns the catalog in use.
func (c *Checker) Messages() Messages {
	return c.messages
}

// Check evaluates f against its constraints in order and returns the first
// failure, or a passing Result.
func (c *Checker) Check(f Field) Result {
	value := strings.TrimSpace(f.Value)

	if value == "" {
		if f.Required {
			return fail(RuleRequired, c.messages.Required)
		}
		return pass()
	}

	if f.Pattern != "" && !c.matchPattern(f.Pattern, value) {
		msg := f.Title
		if msg == "" {
			msg = c.messages.Pattern
		}
		return fail(RulePattern, msg)
	}

	length := utf8.RuneCountInString(value)

	if f.MinLength != "" {
		if n, ok := parseLeadingInt(f.MinLength); ok && length < n {
			return fail(RuleMinLength, format(c.messages.MinLength, f.MinLength))
		}
	}

	if f.MaxLength != "" {
		if n, ok := parseLeadingInt(f.MaxLength); ok && length > n {
			return fail(RuleMaxLength, format(c.messages.MaxLength, f.MaxLength))
		}
	}

	// NaN on either side makes the comparison false, so the check is skipped.
	if f.Min != "" && parseLeadingFloat(value) < parseLeadingFloat(f.Min) {
		return fail(RuleMin, format(c.messages.Min, f.Min))
	}

	if f.Max != "" && parseLeadingFloat(value) > parseLeadingFloat(f.Max) {
		return fail(RuleMax, format(c.messages.Max, f.Max))
	}

	switch strings.ToLower(f.Kind) {
	case KindEmail:
		if !emailPattern.MatchString(value) {
			return fail(RuleEmail, c.messages.Email)
		}
	case KindURL:
		if !isAbsoluteURL(value) {
			return fail(RuleURL, c.messages.URL)
		}
	}

	return pass()
}

// matchPattern reports whether value matches pattern as a whole. A pattern
// that does not compile, or a match that times out, counts as a match.
func (c *Checker) matchPattern(pattern, value string) bool {
	re := c.compile(pattern)
	if re == nil {
		return true
	}
	ok, err := re.MatchString(value)
	if err != nil {
		c.logger.Warn("pattern match aborted, rule skipped", "pattern", pattern, "error", err)
		return true
	}
	return ok
}

// compile returns the anchored expression for pattern in the ECMAScript
// dialect, or nil when it does not compile. Failures are logged once per
// distinct pattern.
func (c *Checker) compile(pattern string) *regexp2.Regexp {
	if cached, ok := c.patterns.Load(pattern); ok {
		return cached.(compiledPattern).re
	}

	re, err := regexp2.Compile(`^(?:`+pattern+`)$`, regexp2.ECMAScript)
	if re != nil {
		re.MatchTimeout = patternTimeout
	}
	actual, loaded := c.patterns.LoadOrStore(pattern, compiledPattern{re: re, err: err})
	if err != nil && !loaded {
		c.logger.Warn("pattern does not compile, rule skipped", "pattern", pattern, "error", err)
	}
	return actual.(compiledPattern).re
}

// parseLeadingInt reads the integer prefix of s, the way HTML attribute
// parsers do ("3px" is 3).
func parseLeadingInt(s string) (int, bool) {
	m := leadingInt.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseLeadingFloat reads the numeric prefix of s and returns NaN when there
// is none.
func parseLeadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "Infinity"), strings.HasPrefix(s, "+Infinity"):
		return math.Inf(1)
	case strings.HasPrefix(s, "-Infinity"):
		return math.Inf(-1)
	}
	m := leadingFloat.FindString(s)
	if m == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	// Overflow yields ±Inf, as in JavaScript.
	return f
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	if hierarchicalSchemes[strings.ToLower(u.Scheme)] {
		return u.Host != "" || u.Opaque != ""
	}
	return true
}
