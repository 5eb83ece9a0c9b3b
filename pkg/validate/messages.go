package validate

import (
	"sort"
	"strings"
)

// Placeholder is replaced with the attribute threshold in length and range
// messages.
const Placeholder = "{n}"

// Messages holds the user-facing failure texts. MinLength, MaxLength, Min and
// Max may contain Placeholder.
type Messages struct {
	Required  string `yaml:"required"`
	Pattern   string `yaml:"pattern"`
	MinLength string `yaml:"minlength"`
	MaxLength string `yaml:"maxlength"`
	Min       string `yaml:"min"`
	Max       string `yaml:"max"`
	Email     string `yaml:"email"`
	URL       string `yaml:"url"`
}

var catalogs = map[string]Messages{
	"en": {
		Required:  "This field is required.",
		Pattern:   "Invalid format.",
		MinLength: "Minimum {n} characters.",
		MaxLength: "Maximum {n} characters.",
		Min:       "The minimum value is {n}.",
		Max:       "The maximum value is {n}.",
		Email:     "Invalid email format.",
		URL:       "Invalid URL.",
	},
	"es": {
		Required:  "Este campo es requerido.",
		Pattern:   "Formato inválido",
		MinLength: "Mínimo {n} caracteres.",
		MaxLength: "Máximo {n} caracteres.",
		Min:       "El valor mínimo es {n}.",
		Max:       "El valor máximo es {n}.",
		Email:     "Formato de email inválido.",
		URL:       "URL inválida.",
	},
}

// DefaultMessages returns the English catalog.
func DefaultMessages() Messages {
	return catalogs["en"]
}

// Catalog returns the built-in messages for a locale such as "es" or "es-AR".
// Region subtags fall back to the base language.
func Catalog(locale string) (Messages, bool) {
	key := strings.ToLower(strings.TrimSpace(locale))
	if m, ok := catalogs[key]; ok {
		return m, true
	}
	if base, _, found := strings.Cut(key, "-"); found {
		if m, ok := catalogs[base]; ok {
			return m, true
		}
	}
	if base, _, found := strings.Cut(key, "_"); found {
		if m, ok := catalogs[base]; ok {
			return m, true
		}
	}
	return Messages{}, false
}

// Locales lists the built-in catalog keys.
func Locales() []string {
	out := make([]string, 0, len(catalogs))
	for k := range catalogs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Merge returns m with every non-empty message of override applied.
func (m Messages) Merge(override Messages) Messages {
	pick := func(base, over string) string {
		if strings.TrimSpace(over) != "" {
			return over
		}
		return base
	}
	return Messages{
		Required:  pick(m.Required, override.Required),
		Pattern:   pick(m.Pattern, override.Pattern),
		MinLength: pick(m.MinLength, override.MinLength),
		MaxLength: pick(m.MaxLength, override.MaxLength),
		Min:       pick(m.Min, override.Min),
		Max:       pick(m.Max, override.Max),
		Email:     pick(m.Email, override.Email),
		URL:       pick(m.URL, override.URL),
	}
}

func format(message, threshold string) string {
	return strings.ReplaceAll(message, Placeholder, threshold)
}
