package validate

// Validator applies a Checker through a Binding, keeping the UI state of each
// field in sync with its latest Result.
type Validator[H any] struct {
	binding  Binding[H]
	checker  *Checker
	observer Observer
}

// Option configures a Validator.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver registers an Observer for field and submit outcomes.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// New creates a Validator. A nil checker uses NewChecker().
func New[H any](binding Binding[H], checker *Checker, opts ...Option) *Validator[H] {
	o := options{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if checker == nil {
		checker = NewChecker()
	}
	return &Validator[H]{
		binding:  binding,
		checker:  checker,
		observer: o.observer,
	}
}

// Check returns the Result for field without changing any UI state.
func (v *Validator[H]) Check(field H) Result {
	return v.checker.Check(v.binding.Describe(field))
}

// ValidateField checks field and updates its error slot and validity style.
func (v *Validator[H]) ValidateField(field H) bool {
	_, res := v.apply(field)
	return res.Valid
}

func (v *Validator[H]) apply(field H) (Field, Result) {
	desc := v.binding.Describe(field)
	res := v.checker.Check(desc)

	if res.Valid {
		v.binding.RemoveErrorSlot(field)
		v.binding.SetValidityStyle(field, StateValid)
	} else {
		v.binding.FindOrCreateErrorSlot(field).SetMessage(res.Message)
		v.binding.SetValidityStyle(field, StateInvalid)
	}

	v.observer.FieldChecked(desc, res)
	return desc, res
}

// FieldResult pairs a control with its Result.
type FieldResult[H any] struct {
	Field  H
	Name   string
	Result Result
}

// ValidateForm validates every control of form in document order and
// reports whether all of them passed. It never stops early, so each field's
// UI state is refreshed.
func (v *Validator[H]) ValidateForm(form H) bool {
	valid, _ := v.ValidateFormResults(form)
	return valid
}

// ValidateFormResults is ValidateForm with the per-field results.
func (v *Validator[H]) ValidateFormResults(form H) (bool, []FieldResult[H]) {
	controls := v.binding.Controls(form)
	results := make([]FieldResult[H], 0, len(controls))
	valid := true
	for _, field := range controls {
		desc, res := v.apply(field)
		if !res.Valid {
			valid = false
		}
		results = append(results, FieldResult[H]{Field: field, Name: desc.Name, Result: res})
	}
	return valid, results
}

// GuardSubmit validates form and, when it is invalid, reveals the first
// invalid field in document order. It returns whether the submission may
// proceed.
func (v *Validator[H]) GuardSubmit(form H) bool {
	valid, results := v.ValidateFormResults(form)
	v.observer.SubmitGuarded(valid)
	if valid {
		return true
	}
	for _, r := range results {
		if !r.Result.Valid {
			v.binding.Reveal(r.Field)
			break
		}
	}
	return false
}

// Attach wires live validation onto the marked forms and returns them.
// Every control gets blur and input listeners that re-validate that control
// alone; each form gets a submit listener that runs GuardSubmit.
func (v *Validator[H]) Attach(target EventTarget[H], forms []H) []H {
	wired := make([]H, 0, len(forms))
	for _, form := range forms {
		if !v.binding.Enabled(form) {
			continue
		}
		for _, field := range v.binding.Controls(form) {
			field := field
			revalidate := func() bool {
				v.ValidateField(field)
				return false
			}
			target.AddListener(field, EventBlur, revalidate)
			target.AddListener(field, EventInput, revalidate)
		}
		form := form
		target.AddListener(form, EventSubmit, func() bool {
			return !v.GuardSubmit(form)
		})
		wired = append(wired, form)
	}
	return wired
}
