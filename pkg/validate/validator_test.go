package validate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeUI is an in-memory Binding and EventTarget keyed by control name.
type fakeUI struct {
	forms     map[string][]string
	marked    map[string]bool
	fields    map[string]Field
	slots     map[string]*fakeSlot
	states    map[string]State
	revealed  []string
	listeners map[string]map[EventKind][]Listener
}

type fakeSlot struct {
	message string
	writes  int
}

func (s *fakeSlot) SetMessage(message string) {
	s.message = message
	s.writes++
}

func newFakeUI() *fakeUI {
	return &fakeUI{
		forms:     make(map[string][]string),
		marked:    make(map[string]bool),
		fields:    make(map[string]Field),
		slots:     make(map[string]*fakeSlot),
		states:    make(map[string]State),
		listeners: make(map[string]map[EventKind][]Listener),
	}
}

func (u *fakeUI) addForm(name string, marked bool, fields ...Field) {
	u.marked[name] = marked
	for _, f := range fields {
		u.forms[name] = append(u.forms[name], f.Name)
		u.fields[f.Name] = f
	}
}

func (u *fakeUI) Enabled(form string) bool           { return u.marked[form] }
func (u *fakeUI) Controls(form string) []string      { return u.forms[form] }
func (u *fakeUI) Describe(field string) Field        { return u.fields[field] }
func (u *fakeUI) RemoveErrorSlot(field string)       { delete(u.slots, field) }
func (u *fakeUI) Reveal(field string)                { u.revealed = append(u.revealed, field) }
func (u *fakeUI) SetValidityStyle(f string, s State) { u.states[f] = s }

func (u *fakeUI) FindOrCreateErrorSlot(field string) ErrorSlot {
	if s, ok := u.slots[field]; ok {
		return s
	}
	s := &fakeSlot{}
	u.slots[field] = s
	return s
}

func (u *fakeUI) AddListener(target string, kind EventKind, fn Listener) {
	if u.listeners[target] == nil {
		u.listeners[target] = make(map[EventKind][]Listener)
	}
	u.listeners[target][kind] = append(u.listeners[target][kind], fn)
}

func (u *fakeUI) dispatch(target string, kind EventKind) (prevented bool) {
	for _, fn := range u.listeners[target][kind] {
		if fn() {
			prevented = true
		}
	}
	return prevented
}

func (u *fakeUI) setValue(field, value string) {
	f := u.fields[field]
	f.Value = value
	u.fields[field] = f
}

type recordingObserver struct {
	rules   []Rule
	submits []bool
}

func (o *recordingObserver) FieldChecked(_ Field, r Result) { o.rules = append(o.rules, r.Rule) }
func (o *recordingObserver) SubmitGuarded(allowed bool)     { o.submits = append(o.submits, allowed) }

func TestValidateFieldSideEffects(t *testing.T) {
	ui := newFakeUI()
	ui.addForm("signup", true, Field{Name: "email", Kind: KindEmail, Required: true})
	v := New[string](ui, nil)

	if v.ValidateField("email") {
		t.Fatal("empty required field should fail")
	}
	if ui.states["email"] != StateInvalid {
		t.Errorf("state = %v, want invalid", ui.states["email"])
	}
	if got := ui.slots["email"].message; got != DefaultMessages().Required {
		t.Errorf("slot message = %q", got)
	}

	ui.setValue("email", "user@example.com")
	if !v.ValidateField("email") {
		t.Fatal("valid email should pass")
	}
	if ui.states["email"] != StateValid {
		t.Errorf("state = %v, want valid", ui.states["email"])
	}
	if _, ok := ui.slots["email"]; ok {
		t.Error("error slot should be removed after a passing validation")
	}
}

func TestValidateFieldIdempotent(t *testing.T) {
	ui := newFakeUI()
	ui.addForm("f", true, Field{Name: "code", Value: "abc123", Pattern: "^[a-z]+$"})
	v := New[string](ui, nil)

	first := v.ValidateField("code")
	second := v.ValidateField("code")
	if first != second {
		t.Fatalf("results differ: %v then %v", first, second)
	}
	if len(ui.slots) != 1 {
		t.Errorf("slots = %d, want 1", len(ui.slots))
	}
	if ui.slots["code"].writes != 2 {
		t.Errorf("slot writes = %d, want 2 (same slot reused)", ui.slots["code"].writes)
	}
}

func TestValidateFormUpdatesEveryField(t *testing.T) {
	ui := newFakeUI()
	ui.addForm("f", true,
		Field{Name: "a", Value: "ok"},
		Field{Name: "b", Required: true},
		Field{Name: "c", Value: "10", Min: "1"},
	)
	obs := &recordingObserver{}
	v := New[string](ui, nil, WithObserver(obs))

	if v.ValidateForm("f") {
		t.Fatal("form with a failing field should be invalid")
	}

	want := map[string]State{"a": StateValid, "b": StateInvalid, "c": StateValid}
	if diff := cmp.Diff(want, ui.states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Rule{RuleNone, RuleRequired, RuleNone}, obs.rules); diff != "" {
		t.Errorf("observed rules mismatch (-want +got):\n%s", diff)
	}
}

func TestGuardSubmitRevealsFirstInvalid(t *testing.T) {
	ui := newFakeUI()
	ui.addForm("f", true,
		Field{Name: "name", Value: "Ana"},
		Field{Name: "age", Value: "5", Min: "18"},
		Field{Name: "site", Value: "nope", Kind: KindURL},
	)
	obs := &recordingObserver{}
	v := New[string](ui, nil, WithObserver(obs))

	if v.GuardSubmit("f") {
		t.Fatal("GuardSubmit should block an invalid form")
	}
	if diff := cmp.Diff([]string{"age"}, ui.revealed); diff != "" {
		t.Errorf("revealed mismatch (-want +got):\n%s", diff)
	}

	ui.setValue("age", "30")
	ui.setValue("site", "https://example.com")
	if !v.GuardSubmit("f") {
		t.Fatal("GuardSubmit should allow a valid form")
	}
	if len(ui.revealed) != 1 {
		t.Errorf("valid submit should not reveal anything, revealed = %v", ui.revealed)
	}
	if diff := cmp.Diff([]bool{false, true}, obs.submits); diff != "" {
		t.Errorf("submits mismatch (-want +got):\n%s", diff)
	}
}

func TestAttachWiresMarkedFormsOnly(t *testing.T) {
	ui := newFakeUI()
	ui.addForm("marked", true, Field{Name: "title", Required: true}, Field{Name: "notes"})
	ui.addForm("plain", false, Field{Name: "search", Required: true})
	v := New[string](ui, nil)

	wired := v.Attach(ui, []string{"marked", "plain"})
	if diff := cmp.Diff([]string{"marked"}, wired); diff != "" {
		t.Fatalf("wired forms mismatch (-want +got):\n%s", diff)
	}
	if _, ok := ui.listeners["search"]; ok {
		t.Error("controls of unmarked forms must not get listeners")
	}

	// Blur re-validates only the target field.
	if ui.dispatch("title", EventBlur) {
		t.Error("blur must not prevent default")
	}
	if ui.states["title"] != StateInvalid {
		t.Errorf("title state = %v, want invalid", ui.states["title"])
	}
	if _, touched := ui.states["notes"]; touched {
		t.Error("blur on title must not validate notes")
	}

	ui.setValue("title", "Hello")
	ui.dispatch("title", EventInput)
	if ui.states["title"] != StateValid {
		t.Errorf("title state after input = %v, want valid", ui.states["title"])
	}

	ui.setValue("title", "")
	if !ui.dispatch("marked", EventSubmit) {
		t.Error("submit of an invalid form should be prevented")
	}
	if diff := cmp.Diff([]string{"title"}, ui.revealed); diff != "" {
		t.Errorf("revealed mismatch (-want +got):\n%s", diff)
	}

	ui.setValue("title", "Back")
	if ui.dispatch("marked", EventSubmit) {
		t.Error("submit of a valid form should not be prevented")
	}
}
