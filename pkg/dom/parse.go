package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Parse reads an HTML document and returns its document node.
// The HTML5 parsing algorithm is applied, so missing html, head and body
// elements are inserted.
func Parse(r io.Reader) (*Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return convert(doc), nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// ParseFragment parses markup in the context of a <body> element and
// returns the resulting top-level nodes, detached.
func ParseFragment(r io.Reader) ([]*Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body"}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if c := convert(n); c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func convert(h *html.Node) *Node {
	var n *Node
	switch h.Type {
	case html.DocumentNode:
		n = &Node{Kind: KindDocument}
	case html.ElementNode:
		n = &Node{Kind: KindElement, Tag: strings.ToLower(h.Data)}
		if len(h.Attr) > 0 {
			n.Attrs = make([]Attr, 0, len(h.Attr))
			for _, a := range h.Attr {
				key := a.Key
				if a.Namespace != "" {
					key = a.Namespace + ":" + a.Key
				}
				n.Attrs = append(n.Attrs, Attr{Key: key, Value: a.Val})
			}
		}
	case html.TextNode:
		return &Node{Kind: KindText, Text: h.Data}
	case html.CommentNode:
		return &Node{Kind: KindComment, Text: h.Data}
	case html.DoctypeNode:
		return &Node{Kind: KindDoctype, Text: h.Data}
	default:
		return nil
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if child := convert(c); child != nil {
			child.Parent = n
			n.Children = append(n.Children, child)
		}
	}
	return n
}
