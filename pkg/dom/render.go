package dom

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// voidElements cannot have children and have no closing tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// rawTextElements hold text that is written without escaping.
var rawTextElements = map[string]bool{
	"script": true,
	"style":  true,
}

// booleanAttrs are rendered as just the attribute name when their value is
// empty.
var booleanAttrs = map[string]bool{
	"allowfullscreen": true,
	"async":           true,
	"autofocus":       true,
	"autoplay":        true,
	"checked":         true,
	"controls":        true,
	"default":         true,
	"defer":           true,
	"disabled":        true,
	"formnovalidate":  true,
	"hidden":          true,
	"ismap":           true,
	"loop":            true,
	"multiple":        true,
	"muted":           true,
	"nomodule":        true,
	"novalidate":      true,
	"open":            true,
	"playsinline":     true,
	"readonly":        true,
	"required":        true,
	"reversed":        true,
	"selected":        true,
}

// IsVoid reports whether tag is a void element.
func IsVoid(tag string) bool {
	return voidElements[tag]
}

// Render writes n and its descendants as HTML. Elements with a HID get a
// data-hid attribute so the client can address them.
func Render(w io.Writer, n *Node) error {
	bw := bufio.NewWriter(w)
	if err := renderNode(bw, n, false); err != nil {
		return err
	}
	return bw.Flush()
}

// RenderString renders n to a string.
func RenderString(n *Node) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderNode(w *bufio.Writer, n *Node, raw bool) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindDocument:
		return renderChildren(w, n, false)
	case KindDoctype:
		_, err := fmt.Fprintf(w, "<!DOCTYPE %s>", n.Text)
		return err
	case KindComment:
		_, err := fmt.Fprintf(w, "<!--%s-->", n.Text)
		return err
	case KindText:
		if raw {
			_, err := w.WriteString(n.Text)
			return err
		}
		_, err := w.WriteString(escapeHTML(n.Text))
		return err
	case KindElement:
		return renderElement(w, n)
	default:
		return fmt.Errorf("dom: unknown node kind: %d", n.Kind)
	}
}

func renderElement(w *bufio.Writer, n *Node) error {
	w.WriteByte('<')
	w.WriteString(n.Tag)
	for _, a := range n.Attrs {
		if a.Key == HIDAttr {
			continue
		}
		w.WriteByte(' ')
		w.WriteString(a.Key)
		if a.Value == "" && booleanAttrs[a.Key] {
			continue
		}
		w.WriteString(`="`)
		w.WriteString(escapeAttr(a.Value))
		w.WriteByte('"')
	}
	if n.HID != "" {
		fmt.Fprintf(w, ` %s="%s"`, HIDAttr, n.HID)
	}
	if _, err := w.WriteString(">"); err != nil {
		return err
	}
	if voidElements[n.Tag] {
		return nil
	}
	if err := renderChildren(w, n, rawTextElements[n.Tag]); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "</%s>", n.Tag)
	return err
}

func renderChildren(w *bufio.Writer, n *Node, raw bool) error {
	for _, c := range n.Children {
		if err := renderNode(w, c, raw); err != nil {
			return err
		}
	}
	return nil
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"\n", "&#10;",
	"\r", "&#13;",
	"\t", "&#9;",
)

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// escapeAttr escapes text for safe inclusion in attribute values.
// Whitespace that could break attribute parsing is escaped as well.
func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
