package errors

import "sort"

// Template defines a registered error code.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]Template{
	// Config (E100-E119)
	"E100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "The file passed with --config does not exist. Without --config, livevalidate.yaml in the working directory is optional.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Config file could not be parsed",
		Detail:   "The config file is not valid YAML or a value has the wrong type.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A config value is out of range or refers to something unknown.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A LIVEVALIDATE_* environment variable could not be converted to the type of its setting.",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Environment file could not be loaded",
		Detail:   "A file passed with --env-file is missing or malformed.",
	},

	// Pages (E200-E219)
	"E200": {
		Category: CategoryPages,
		Message:  "Page not found",
		Detail:   "The page store has no page with this name.",
	},
	"E201": {
		Category: CategoryPages,
		Message:  "Invalid page name",
		Detail:   "Page names are relative slash-separated paths without \"..\" segments.",
	},
	"E202": {
		Category: CategoryPages,
		Message:  "Page could not be loaded",
		Detail:   "Reading or parsing the page failed.",
	},

	// Check (E300-E319)
	"E300": {
		Category: CategoryCheck,
		Message:  "No form to validate",
		Detail:   "The page has no form carrying the validation marker, or the requested form index is out of range.",
	},
	"E301": {
		Category: CategoryCheck,
		Message:  "Invalid --set argument",
		Detail:   "Field values are given as name=value.",
	},
	"E302": {
		Category: CategoryCheck,
		Message:  "Values file could not be read",
		Detail:   "The --values file must be a YAML mapping of field names to values.",
	},
	"E303": {
		Category: CategoryCheck,
		Message:  "Form is invalid",
		Detail:   "At least one field failed validation.",
	},

	// Server (E400-E419)
	"E400": {
		Category: CategoryServer,
		Message:  "Server failed",
		Detail:   "The HTTP server could not start or stopped with an error.",
	},
}

// Codes returns all registered codes in ascending order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for a code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
