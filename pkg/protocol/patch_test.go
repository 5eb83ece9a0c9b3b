package protocol

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sigrams/livevalidate/pkg/dom"
)

func errorNodeWire() *NodeWire {
	return &NodeWire{
		Kind:  WireElement,
		Tag:   "div",
		HID:   "h20",
		Attrs: []dom.Attr{{Key: "class", Value: "field-error text-danger small mt-1"}},
		Children: []*NodeWire{
			{Kind: WireText, Text: "This field is required."},
		},
	}
}

func TestPatchesRoundTrip(t *testing.T) {
	pf := &PatchesFrame{
		Seq: 7,
		Patches: []Patch{
			NewAddClassPatch("h4", "is-invalid"),
			NewRemoveClassPatch("h4", "is-valid"),
			NewInsertNodePatch("h3", 1, errorNodeWire()),
			NewSetTextPatch("h20", "Invalid email format."),
			NewSetValuePatch("h4", "trimmed"),
			NewRemoveNodePatch("h20"),
			NewScrollIntoViewPatch("h4", ScrollSmooth, "center"),
			NewFocusPatch("h4"),
			NewSubmitPatch("h2"),
		},
	}

	got, err := DecodePatches(EncodePatches(pf))
	if err != nil {
		t.Fatalf("DecodePatches() error = %v", err)
	}
	if diff := cmp.Diff(pf, got); diff != "" {
		t.Errorf("patches mismatch (-want +got):\n%s", diff)
	}
	if got.Patches[2].HID != "h20" {
		t.Errorf("InsertNode target = %q, want the node's HID", got.Patches[2].HID)
	}
}

func TestPatchOpString(t *testing.T) {
	tests := map[PatchOp]string{
		PatchAddClass:       "AddClass",
		PatchScrollIntoView: "ScrollIntoView",
		PatchSubmit:         "Submit",
		PatchOp(0x7F):       "Unknown",
	}
	for op, want := range tests {
		if got := op.String(); got != want {
			t.Errorf("PatchOp(%#x).String() = %q, want %q", uint8(op), got, want)
		}
	}
}

func TestDecodeUnknownPatchOp(t *testing.T) {
	e := NewEncoder()
	e.PutUvarint(1) // seq
	e.PutUvarint(2) // count
	e.PutByte(0x7F)
	e.PutString("h1")
	encodePatch(e, &Patch{Op: PatchFocus, HID: "h2"})

	got, err := DecodePatches(e.Bytes())
	if err != nil {
		t.Fatalf("DecodePatches() error = %v", err)
	}
	if len(got.Patches) != 2 || got.Patches[1].Op != PatchFocus || got.Patches[1].HID != "h2" {
		t.Errorf("patches = %+v", got.Patches)
	}
}

func TestNodeToWire(t *testing.T) {
	div := dom.Element("div", dom.Attr{Key: "class", Value: "field-error"})
	div.HID = "h9"
	div.AppendChild(&dom.Node{Kind: dom.KindComment, Text: "skipped"})
	div.AppendChild(dom.Text("msg"))

	want := &NodeWire{
		Kind:     WireElement,
		Tag:      "div",
		HID:      "h9",
		Attrs:    []dom.Attr{{Key: "class", Value: "field-error"}},
		Children: []*NodeWire{{Kind: WireText, Text: "msg"}},
	}
	if diff := cmp.Diff(want, NodeToWire(div)); diff != "" {
		t.Errorf("NodeToWire mismatch (-want +got):\n%s", diff)
	}
	if NodeToWire(nil) != nil {
		t.Error("NodeToWire(nil) should be nil")
	}
}

func TestDecodeNodeWireDepthLimit(t *testing.T) {
	root := &NodeWire{Kind: WireElement, Tag: "div"}
	cur := root
	for i := 0; i < MaxNodeDepth+2; i++ {
		child := &NodeWire{Kind: WireElement, Tag: "div"}
		cur.Children = []*NodeWire{child}
		cur = child
	}
	e := NewEncoder()
	EncodeNodeWire(e, root)

	if _, err := DecodeNodeWire(NewDecoder(e.Bytes())); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("error = %v, want ErrMaxDepthExceeded", err)
	}
}

func TestDecodeNodeWireInvalidKind(t *testing.T) {
	if _, err := DecodeNodeWire(NewDecoder([]byte{0x42})); !errors.Is(err, ErrInvalidNodeKind) {
		t.Errorf("error = %v, want ErrInvalidNodeKind", err)
	}
}
