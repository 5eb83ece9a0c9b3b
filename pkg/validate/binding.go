package validate

// ErrorSlot is the inline node that displays a field's failure text.
type ErrorSlot interface {
	SetMessage(message string)
}

// Binding adapts a UI toolkit to the validator. H is the toolkit's handle
// type for forms and controls.
type Binding[H any] interface {
	// Enabled reports whether form carries the activation marker.
	Enabled(form H) bool

	// Controls returns the form's controls in document order.
	Controls(form H) []H

	// Describe snapshots a control's value and validation attributes.
	Describe(field H) Field

	// FindOrCreateErrorSlot returns the error slot of the field's container,
	// creating it when missing. A container holds at most one slot.
	FindOrCreateErrorSlot(field H) ErrorSlot

	// RemoveErrorSlot deletes the field's error slot if present.
	RemoveErrorSlot(field H)

	// SetValidityStyle applies state and clears the opposite marker.
	SetValidityStyle(field H, state State)

	// Reveal scrolls the field smoothly into view and focuses it.
	Reveal(field H)
}

// EventKind is a UI event the validator listens for.
type EventKind uint8

const (
	EventBlur EventKind = iota + 1
	EventInput
	EventSubmit
)

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	switch k {
	case EventBlur:
		return "blur"
	case EventInput:
		return "input"
	case EventSubmit:
		return "submit"
	default:
		return "unknown"
	}
}

// Listener handles a dispatched event. Returning true cancels the event's
// default action.
type Listener func() (preventDefault bool)

// EventTarget registers listeners on UI handles.
type EventTarget[H any] interface {
	AddListener(target H, kind EventKind, fn Listener)
}

// Observer receives validation outcomes, typically for metrics.
type Observer interface {
	FieldChecked(field Field, result Result)
	SubmitGuarded(allowed bool)
}

type nopObserver struct{}

func (nopObserver) FieldChecked(Field, Result) {}
func (nopObserver) SubmitGuarded(bool)         {}
