package dom

import "strings"

// ControlTags are the elements that hold user input.
var ControlTags = []string{"input", "select", "textarea"}

// IsControl reports whether n is an input, select or textarea element.
func (n *Node) IsControl() bool {
	return n.IsElement(ControlTags...)
}

// ControlKind returns the control's type the way the browser reports it:
// the lower-cased type attribute for inputs ("text" when missing),
// "textarea", "select-one" or "select-multiple".
func (n *Node) ControlKind() string {
	switch n.Tag {
	case "input":
		t := strings.ToLower(strings.TrimSpace(n.AttrOr("type", "")))
		if t == "" {
			return "text"
		}
		return t
	case "textarea":
		return "textarea"
	case "select":
		if n.HasAttr("multiple") {
			return "select-multiple"
		}
		return "select-one"
	default:
		return ""
	}
}

// FormValue returns the current value of a control.
func (n *Node) FormValue() string {
	switch n.Tag {
	case "input":
		if v, ok := n.Attr("value"); ok {
			return v
		}
		switch n.ControlKind() {
		case "checkbox", "radio":
			return "on"
		}
		return ""
	case "textarea":
		return n.TextContent()
	case "select":
		options := n.QueryAll(ByTag("option"))
		for _, o := range options {
			if o.HasAttr("selected") {
				return optionValue(o)
			}
		}
		if len(options) > 0 && !n.HasAttr("multiple") {
			return optionValue(options[0])
		}
		return ""
	default:
		return ""
	}
}

// SetFormValue updates a control's value in the tree.
func (n *Node) SetFormValue(value string) {
	switch n.Tag {
	case "input":
		n.SetAttr("value", value)
	case "textarea":
		n.SetTextContent(value)
	case "select":
		for _, o := range n.QueryAll(ByTag("option")) {
			if optionValue(o) == value {
				o.SetAttr("selected", "")
			} else {
				o.RemoveAttr("selected")
			}
		}
	}
}

func optionValue(o *Node) string {
	if v, ok := o.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(o.TextContent())
}
