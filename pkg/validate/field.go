package validate

// Control kinds with dedicated rules. Any other kind only gets the generic
// attribute checks.
const (
	KindText     = "text"
	KindEmail    = "email"
	KindURL      = "url"
	KindNumber   = "number"
	KindTextarea = "textarea"
)

// Field is a read-only snapshot of a control's value and validation
// attributes, taken at validation time.
//
// Numeric attributes are kept as the raw attribute text. An empty string
// means the attribute is absent (or empty, which is treated the same way).
type Field struct {
	Name      string
	Value     string
	Kind      string
	Required  bool
	Pattern   string
	Title     string
	MinLength string
	MaxLength string
	Min       string
	Max       string
}

// Rule identifies the constraint that decided a Result.
type Rule string

const (
	RuleNone      Rule = ""
	RuleRequired  Rule = "required"
	RulePattern   Rule = "pattern"
	RuleMinLength Rule = "minlength"
	RuleMaxLength Rule = "maxlength"
	RuleMin       Rule = "min"
	RuleMax       Rule = "max"
	RuleEmail     Rule = "email"
	RuleURL       Rule = "url"
)

// Result is the outcome of checking one field. Rule and Message are empty
// when Valid is true.
type Result struct {
	Valid   bool
	Rule    Rule
	Message string
}

func pass() Result {
	return Result{Valid: true}
}

func fail(rule Rule, message string) Result {
	return Result{Rule: rule, Message: message}
}

// State is the mutually exclusive validity marker applied to a field.
type State uint8

const (
	StateNone State = iota
	StateValid
	StateInvalid
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}
