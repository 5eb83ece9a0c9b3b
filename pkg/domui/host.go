// Package domui binds the validator to a server-side DOM tree. Every
// mutation the validator makes is applied to the tree and recorded as a
// protocol patch for the connected browser.
package domui

import (
	"log/slog"
	"strings"

	"github.com/sigrams/livevalidate/pkg/dom"
	"github.com/sigrams/livevalidate/pkg/protocol"
	"github.com/sigrams/livevalidate/pkg/validate"
)

// Config controls how forms are recognised and how state is presented.
type Config struct {
	// Marker is the form attribute that enables validation.
	Marker string

	// ContainerClasses identify a field's container, nearest first.
	// Without a match the field's parent is used.
	ContainerClasses []string

	// ErrorClasses are set on the error-message node. The first class is
	// the one used to find an existing node.
	ErrorClasses []string

	ValidClass   string
	InvalidClass string

	// ScrollBlock is the block alignment used when revealing a field.
	ScrollBlock string

	Logger *slog.Logger
}

// DefaultConfig returns the Bootstrap-flavoured defaults.
func DefaultConfig() Config {
	return Config{
		Marker:           "data-validate",
		ContainerClasses: []string{"mb-3", "form-group"},
		ErrorClasses:     []string{"field-error", "text-danger", "small", "mt-1"},
		ValidClass:       "is-valid",
		InvalidClass:     "is-invalid",
		ScrollBlock:      "center",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Marker == "" {
		c.Marker = d.Marker
	}
	if len(c.ContainerClasses) == 0 {
		c.ContainerClasses = d.ContainerClasses
	}
	if len(c.ErrorClasses) == 0 {
		c.ErrorClasses = d.ErrorClasses
	}
	if c.ValidClass == "" {
		c.ValidClass = d.ValidClass
	}
	if c.InvalidClass == "" {
		c.InvalidClass = d.InvalidClass
	}
	if c.ScrollBlock == "" {
		c.ScrollBlock = d.ScrollBlock
	}
	if c.Logger == nil {
		c.Logger = slog.Default().With("component", "domui")
	}
	return c
}

// Host implements validate.Binding and validate.EventTarget over a dom tree.
// It is not safe for concurrent use; each session owns one Host.
type Host struct {
	cfg       Config
	doc       *dom.Node
	gen       *dom.HIDGenerator
	hids      map[string]*dom.Node
	listeners map[*dom.Node]map[validate.EventKind][]validate.Listener
	patches   []protocol.Patch
}

var (
	_ validate.Binding[*dom.Node]     = (*Host)(nil)
	_ validate.EventTarget[*dom.Node] = (*Host)(nil)
)

// NewHost assigns HIDs to doc and returns a Host for it. Two Hosts built
// from the same markup agree on every HID.
func NewHost(doc *dom.Node, cfg Config) *Host {
	h := &Host{
		cfg:       cfg.withDefaults(),
		doc:       doc,
		gen:       dom.NewHIDGenerator(),
		listeners: make(map[*dom.Node]map[validate.EventKind][]validate.Listener),
	}
	dom.AssignHIDs(doc, h.gen)
	h.hids = dom.CollectHIDs(doc)
	return h
}

// Document returns the tree the Host mutates.
func (h *Host) Document() *dom.Node {
	return h.doc
}

// Lookup returns the node with the given HID.
func (h *Host) Lookup(hid string) (*dom.Node, bool) {
	n, ok := h.hids[hid]
	return n, ok
}

// Forms returns every form in the document, marked or not.
func (h *Host) Forms() []*dom.Node {
	return h.doc.QueryAll(dom.ByTag("form"))
}

// MarkedForms returns the forms carrying the marker attribute.
func (h *Host) MarkedForms() []*dom.Node {
	var out []*dom.Node
	for _, f := range h.Forms() {
		if h.Enabled(f) {
			out = append(out, f)
		}
	}
	return out
}

// Enabled reports whether form carries the marker attribute.
func (h *Host) Enabled(form *dom.Node) bool {
	return form.IsElement("form") && form.HasAttr(h.cfg.Marker)
}

// Controls returns the form's inputs, selects and textareas in document
// order.
func (h *Host) Controls(form *dom.Node) []*dom.Node {
	return form.QueryAll((*dom.Node).IsControl)
}

// Describe snapshots a control for the checker.
func (h *Host) Describe(field *dom.Node) validate.Field {
	return validate.Field{
		Name:      FieldName(field),
		Value:     field.FormValue(),
		Kind:      field.ControlKind(),
		Required:  field.HasAttr("required"),
		Pattern:   field.AttrOr("pattern", ""),
		Title:     field.AttrOr("title", ""),
		MinLength: field.AttrOr("minlength", ""),
		MaxLength: field.AttrOr("maxlength", ""),
		Min:       field.AttrOr("min", ""),
		Max:       field.AttrOr("max", ""),
	}
}

// FieldName returns the name a control is reported under: its name, its id,
// or its HID.
func FieldName(field *dom.Node) string {
	if v := field.AttrOr("name", ""); v != "" {
		return v
	}
	if v := field.AttrOr("id", ""); v != "" {
		return v
	}
	return field.HID
}

// Container returns the node that holds the field's error message.
func (h *Host) Container(field *dom.Node) *dom.Node {
	c := field.Closest(func(n *dom.Node) bool {
		if !n.IsElement() {
			return false
		}
		for _, class := range h.cfg.ContainerClasses {
			if n.HasClass(class) {
				return true
			}
		}
		return false
	})
	if c != nil {
		return c
	}
	if field.Parent != nil {
		return field.Parent
	}
	return field
}

func (h *Host) findErrorNode(container *dom.Node) *dom.Node {
	return container.QueryFirst(dom.ByClass(h.cfg.ErrorClasses[0]))
}

// FindOrCreateErrorSlot returns the container's error node, appending an
// empty one when missing.
func (h *Host) FindOrCreateErrorSlot(field *dom.Node) validate.ErrorSlot {
	container := h.Container(field)
	if n := h.findErrorNode(container); n != nil {
		return &errorSlot{host: h, node: n, insert: -1}
	}

	n := dom.Element("div", dom.Attr{Key: "class", Value: strings.Join(h.cfg.ErrorClasses, " ")})
	container.AppendChild(n)
	dom.AssignHID(n, h.gen)
	h.hids[n.HID] = n

	h.patches = append(h.patches, protocol.NewInsertNodePatch(container.HID, n.Index(), protocol.NodeToWire(n)))
	h.cfg.Logger.Debug("error slot created", "field", FieldName(field), "hid", n.HID)
	return &errorSlot{host: h, node: n, insert: len(h.patches) - 1}
}

// RemoveErrorSlot removes the container's error node if present.
func (h *Host) RemoveErrorSlot(field *dom.Node) {
	n := h.findErrorNode(h.Container(field))
	if n == nil {
		return
	}
	n.Remove()
	delete(h.hids, n.HID)
	h.patches = append(h.patches, protocol.NewRemoveNodePatch(n.HID))
}

// SetValidityStyle toggles the valid and invalid classes on field.
func (h *Host) SetValidityStyle(field *dom.Node, state validate.State) {
	switch state {
	case validate.StateValid:
		h.removeClass(field, h.cfg.InvalidClass)
		h.addClass(field, h.cfg.ValidClass)
	case validate.StateInvalid:
		h.removeClass(field, h.cfg.ValidClass)
		h.addClass(field, h.cfg.InvalidClass)
	default:
		h.removeClass(field, h.cfg.ValidClass)
		h.removeClass(field, h.cfg.InvalidClass)
	}
}

func (h *Host) addClass(n *dom.Node, class string) {
	if n.AddClass(class) {
		h.patches = append(h.patches, protocol.NewAddClassPatch(n.HID, class))
	}
}

func (h *Host) removeClass(n *dom.Node, class string) {
	if n.RemoveClass(class) {
		h.patches = append(h.patches, protocol.NewRemoveClassPatch(n.HID, class))
	}
}

// Reveal scrolls field smoothly into view and focuses it.
func (h *Host) Reveal(field *dom.Node) {
	h.patches = append(h.patches,
		protocol.NewScrollIntoViewPatch(field.HID, protocol.ScrollSmooth, h.cfg.ScrollBlock),
		protocol.NewFocusPatch(field.HID),
	)
}

// AddListener registers fn for kind events on target.
func (h *Host) AddListener(target *dom.Node, kind validate.EventKind, fn validate.Listener) {
	byKind := h.listeners[target]
	if byKind == nil {
		byKind = make(map[validate.EventKind][]validate.Listener)
		h.listeners[target] = byKind
	}
	byKind[kind] = append(byKind[kind], fn)
}

// Dispatch runs the listeners registered for kind on target and reports
// whether any of them cancelled the default action.
func (h *Host) Dispatch(target *dom.Node, kind validate.EventKind) (prevented bool) {
	for _, fn := range h.listeners[target][kind] {
		if fn() {
			prevented = true
		}
	}
	return prevented
}

// HasListeners reports whether anything listens for kind on target.
func (h *Host) HasListeners(target *dom.Node, kind validate.EventKind) bool {
	return len(h.listeners[target][kind]) > 0
}

// Emit queues a patch that did not come from the validator.
func (h *Host) Emit(p protocol.Patch) {
	h.patches = append(h.patches, p)
}

// Flush returns the patches recorded since the last Flush.
func (h *Host) Flush() []protocol.Patch {
	out := h.patches
	h.patches = nil
	return out
}

// ApplyValues copies submitted values into the form's controls by name.
// Checkboxes and radios keep their value attribute.
func (h *Host) ApplyValues(form *dom.Node, values map[string]string) {
	for _, c := range h.Controls(form) {
		switch c.ControlKind() {
		case "checkbox", "radio", "submit", "button", "reset", "image", "file":
			continue
		}
		if v, ok := values[FieldName(c)]; ok {
			c.SetFormValue(v)
		}
	}
}

// errorSlot writes messages into an error node. A slot created in the
// current batch rewrites its pending InsertNode patch instead of sending
// a separate SetText.
type errorSlot struct {
	host   *Host
	node   *dom.Node
	insert int
}

func (s *errorSlot) SetMessage(message string) {
	if s.insert >= 0 {
		s.node.SetTextContent(message)
		if s.insert < len(s.host.patches) {
			s.host.patches[s.insert].Node = protocol.NodeToWire(s.node)
		}
		return
	}
	if s.node.TextContent() == message {
		return
	}
	s.node.SetTextContent(message)
	s.host.patches = append(s.host.patches, protocol.NewSetTextPatch(s.node.HID, message))
}
