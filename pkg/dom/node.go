package dom

import "strings"

// NodeKind is the node type discriminator.
type NodeKind uint8

const (
	KindElement  NodeKind = iota // <div>, <input>, etc.
	KindText                     // Plain text node
	KindDocument                 // Document root
	KindComment                  // <!-- ... -->
	KindDoctype                  // <!DOCTYPE ...>
)

// String returns the string representation of the NodeKind.
func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindDocument:
		return "Document"
	case KindComment:
		return "Comment"
	case KindDoctype:
		return "Doctype"
	default:
		return "Unknown"
	}
}

// Attr is a single attribute. Attribute order is preserved for rendering.
type Attr struct {
	Key   string
	Value string
}

// Node is a mutable server-side DOM node.
type Node struct {
	Kind     NodeKind
	Tag      string  // Lower-case element tag name
	Attrs    []Attr  // Element attributes in source order
	Text     string  // For text, comment and doctype nodes
	HID      string  // Hydration ID (assigned by AssignHIDs)
	Parent   *Node   // nil for the root
	Children []*Node // Child nodes in document order
}

// Element creates a detached element node.
func Element(tag string, attrs ...Attr) *Node {
	return &Node{Kind: KindElement, Tag: strings.ToLower(tag), Attrs: attrs}
}

// Text creates a detached text node.
func Text(content string) *Node {
	return &Node{Kind: KindText, Text: content}
}

// IsElement reports whether n is an element with one of the given tags.
// With no tags it reports whether n is an element at all.
func (n *Node) IsElement(tags ...string) bool {
	if n == nil || n.Kind != KindElement {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Tag == t {
			return true
		}
	}
	return false
}

// Attr returns the value of key and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the value of key, or def when absent.
func (n *Node) AttrOr(key, def string) string {
	if v, ok := n.Attr(key); ok {
		return v
	}
	return def
}

// HasAttr reports whether key is present.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// SetAttr sets key to value, appending it when absent.
func (n *Node) SetAttr(key, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
}

// RemoveAttr deletes key and reports whether it was present.
func (n *Node) RemoveAttr(key string) bool {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return true
		}
	}
	return false
}

// Classes returns the class list.
func (n *Node) Classes() []string {
	v, _ := n.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether class is in the class list.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds class and reports whether the list changed.
func (n *Node) AddClass(class string) bool {
	if class == "" || n.HasClass(class) {
		return false
	}
	n.SetAttr("class", strings.Join(append(n.Classes(), class), " "))
	return true
}

// RemoveClass removes class and reports whether the list changed.
func (n *Node) RemoveClass(class string) bool {
	classes := n.Classes()
	out := classes[:0]
	for _, c := range classes {
		if c != class {
			out = append(out, c)
		}
	}
	if len(out) == len(classes) {
		return false
	}
	n.SetAttr("class", strings.Join(out, " "))
	return true
}

// AppendChild attaches child as the last child of n, detaching it first.
func (n *Node) AppendChild(child *Node) {
	child.Remove()
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	p := n.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == n {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

// Index returns the position of n among its parent's children, or -1.
func (n *Node) Index() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// TextContent concatenates the text of all descendant text nodes.
func (n *Node) TextContent() string {
	if n.Kind == KindText {
		return n.Text
	}
	var b strings.Builder
	n.walk(func(c *Node) bool {
		if c.Kind == KindText {
			b.WriteString(c.Text)
		}
		return true
	})
	return b.String()
}

// SetTextContent replaces all children with a single text node.
func (n *Node) SetTextContent(text string) {
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
	if text != "" {
		n.AppendChild(Text(text))
	}
}

// Closest returns the nearest node, starting with n itself and walking up,
// that satisfies match.
func (n *Node) Closest(match func(*Node) bool) *Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if match(cur) {
			return cur
		}
	}
	return nil
}

// QueryAll returns the descendants of n (not n itself) that satisfy match,
// in document order.
func (n *Node) QueryAll(match func(*Node) bool) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.walk(func(d *Node) bool {
			if match(d) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// QueryFirst returns the first descendant of n that satisfies match.
func (n *Node) QueryFirst(match func(*Node) bool) *Node {
	var found *Node
	for _, c := range n.Children {
		c.walk(func(d *Node) bool {
			if found == nil && match(d) {
				found = d
			}
			return found == nil
		})
		if found != nil {
			break
		}
	}
	return found
}

// walk visits n and its descendants depth-first until visit returns false.
func (n *Node) walk(visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(visit) {
			return false
		}
	}
	return true
}

// ByTag matches elements with any of the given tags.
func ByTag(tags ...string) func(*Node) bool {
	return func(n *Node) bool { return n.IsElement(tags...) }
}

// ByClass matches elements carrying class.
func ByClass(class string) func(*Node) bool {
	return func(n *Node) bool { return n.IsElement() && n.HasClass(class) }
}
