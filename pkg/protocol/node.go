package protocol

import (
	"errors"

	"github.com/sigrams/livevalidate/pkg/dom"
)

// Wire node kinds.
const (
	WireElement uint8 = 0x01
	WireText    uint8 = 0x02
	wireNull    uint8 = 0xFF
)

// ErrInvalidNodeKind is returned when decoding an unknown node kind.
var ErrInvalidNodeKind = errors.New("protocol: invalid node kind")

// NodeWire is the wire format for a DOM subtree. Comments and doctypes are
// not sent.
type NodeWire struct {
	Kind     uint8
	Tag      string
	HID      string
	Attrs    []dom.Attr // Source order
	Children []*NodeWire
	Text     string
}

// NodeToWire converts a dom.Node subtree to wire format.
func NodeToWire(n *dom.Node) *NodeWire {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case dom.KindText:
		return &NodeWire{Kind: WireText, Text: n.Text}
	case dom.KindElement:
	default:
		return nil
	}

	w := &NodeWire{Kind: WireElement, Tag: n.Tag, HID: n.HID}
	if len(n.Attrs) > 0 {
		w.Attrs = append([]dom.Attr(nil), n.Attrs...)
	}
	for _, c := range n.Children {
		if cw := NodeToWire(c); cw != nil {
			w.Children = append(w.Children, cw)
		}
	}
	return w
}

// EncodeNodeWire encodes a NodeWire using the provided encoder.
func EncodeNodeWire(e *Encoder, node *NodeWire) {
	if node == nil {
		e.PutByte(wireNull)
		return
	}

	e.PutByte(node.Kind)
	switch node.Kind {
	case WireElement:
		e.PutString(node.Tag)
		e.PutString(node.HID)
		e.PutUvarint(uint64(len(node.Attrs)))
		for _, a := range node.Attrs {
			e.PutString(a.Key)
			e.PutString(a.Value)
		}
		e.PutUvarint(uint64(len(node.Children)))
		for _, c := range node.Children {
			EncodeNodeWire(e, c)
		}
	case WireText:
		e.PutString(node.Text)
	}
}

// DecodeNodeWire decodes a NodeWire, enforcing MaxNodeDepth.
func DecodeNodeWire(d *Decoder) (*NodeWire, error) {
	return decodeNodeWire(d, 0)
}

func decodeNodeWire(d *Decoder, depth int) (*NodeWire, error) {
	if err := checkDepth(depth, MaxNodeDepth); err != nil {
		return nil, err
	}

	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	switch kind {
	case wireNull:
		return nil, nil

	case WireText:
		text, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return &NodeWire{Kind: WireText, Text: text}, nil

	case WireElement:
		w := &NodeWire{Kind: WireElement}
		if w.Tag, err = d.ReadString(); err != nil {
			return nil, err
		}
		if w.HID, err = d.ReadString(); err != nil {
			return nil, err
		}

		attrCount, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		if attrCount > 0 {
			w.Attrs = make([]dom.Attr, attrCount)
			for i := range w.Attrs {
				if w.Attrs[i].Key, err = d.ReadString(); err != nil {
					return nil, err
				}
				if w.Attrs[i].Value, err = d.ReadString(); err != nil {
					return nil, err
				}
			}
		}

		childCount, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		if childCount > 0 {
			w.Children = make([]*NodeWire, 0, childCount)
			for i := 0; i < childCount; i++ {
				c, err := decodeNodeWire(d, depth+1)
				if err != nil {
					return nil, err
				}
				if c != nil {
					w.Children = append(w.Children, c)
				}
			}
		}
		return w, nil

	default:
		return nil, ErrInvalidNodeKind
	}
}
