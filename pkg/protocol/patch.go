package protocol

// PatchOp is the type of patch operation.
type PatchOp uint8

// Patch operation constants.
const (
	PatchSetText        PatchOp = 0x01 // Update text content
	PatchInsertNode     PatchOp = 0x04 // Insert new node
	PatchRemoveNode     PatchOp = 0x05 // Remove node
	PatchSetValue       PatchOp = 0x08 // Set control value
	PatchFocus          PatchOp = 0x0B // Focus element
	PatchScrollIntoView PatchOp = 0x0E // Scroll element into view
	PatchAddClass       PatchOp = 0x10 // Add CSS class
	PatchRemoveClass    PatchOp = 0x11 // Remove CSS class
	PatchSubmit         PatchOp = 0x16 // Perform the native form submit
)

var patchOpNames = map[PatchOp]string{
	PatchSetText:        "SetText",
	PatchInsertNode:     "InsertNode",
	PatchRemoveNode:     "RemoveNode",
	PatchSetValue:       "SetValue",
	PatchFocus:          "Focus",
	PatchScrollIntoView: "ScrollIntoView",
	PatchAddClass:       "AddClass",
	PatchRemoveClass:    "RemoveClass",
	PatchSubmit:         "Submit",
}

func (op PatchOp) String() string {
	if name, ok := patchOpNames[op]; ok {
		return name
	}
	return "Unknown"
}

// ScrollBehavior is the scroll behavior for PatchScrollIntoView.
type ScrollBehavior uint8

const (
	ScrollInstant ScrollBehavior = 0
	ScrollSmooth  ScrollBehavior = 1
)

// Patch is a single DOM operation.
type Patch struct {
	Op       PatchOp
	HID      string         // Target element's hydration ID
	Value    string         // Text, value or class
	ParentID string         // Parent HID for InsertNode
	Index    int            // Insert position
	Node     *NodeWire      // For InsertNode
	Behavior ScrollBehavior // For ScrollIntoView
	Block    string         // For ScrollIntoView ("start", "center", ...)
}

// PatchesFrame is a batch of patches with a sequence number.
type PatchesFrame struct {
	Seq     uint64
	Patches []Patch
}

// EncodePatches encodes a patches frame to bytes.
func EncodePatches(pf *PatchesFrame) []byte {
	e := NewEncoder()
	EncodePatchesTo(e, pf)
	return e.Bytes()
}

// EncodePatchesTo encodes a patches frame using the provided encoder.
func EncodePatchesTo(e *Encoder, pf *PatchesFrame) {
	e.PutUvarint(pf.Seq)
	e.PutUvarint(uint64(len(pf.Patches)))
	for i := range pf.Patches {
		encodePatch(e, &pf.Patches[i])
	}
}

func encodePatch(e *Encoder, p *Patch) {
	e.PutByte(byte(p.Op))
	e.PutString(p.HID)

	switch p.Op {
	case PatchSetText, PatchSetValue, PatchAddClass, PatchRemoveClass:
		e.PutString(p.Value)

	case PatchInsertNode:
		e.PutString(p.ParentID)
		e.PutUvarint(uint64(p.Index))
		EncodeNodeWire(e, p.Node)

	case PatchScrollIntoView:
		e.PutByte(byte(p.Behavior))
		e.PutString(p.Block)
	}
}

// DecodePatches decodes a patches frame from bytes.
func DecodePatches(data []byte) (*PatchesFrame, error) {
	return DecodePatchesFrom(NewDecoder(data))
}

// DecodePatchesFrom reads one patches frame from d.
func DecodePatchesFrom(d *Decoder) (*PatchesFrame, error) {
	pf := new(PatchesFrame)
	var err error
	if pf.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	pf.Patches = make([]Patch, n)
	for i := range pf.Patches {
		if err := decodePatch(d, &pf.Patches[i]); err != nil {
			return nil, err
		}
	}
	return pf, nil
}

func decodePatch(d *Decoder, p *Patch) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Op = PatchOp(op)
	if p.HID, err = d.ReadString(); err != nil {
		return err
	}

	switch p.Op {
	case PatchSetText, PatchSetValue, PatchAddClass, PatchRemoveClass:
		p.Value, err = d.ReadString()
	case PatchInsertNode:
		err = decodeInsert(d, p)
	case PatchScrollIntoView:
		var behavior byte
		if behavior, err = d.ReadByte(); err == nil {
			p.Behavior = ScrollBehavior(behavior)
			p.Block, err = d.ReadString()
		}
	}
	// RemoveNode, Focus, Submit and unknown ops carry only the HID.
	return err
}

func decodeInsert(d *Decoder, p *Patch) error {
	var err error
	if p.ParentID, err = d.ReadString(); err != nil {
		return err
	}
	index, err := d.ReadUvarint()
	if err != nil {
		return err
	}
	p.Index = int(index)
	p.Node, err = DecodeNodeWire(d)
	return err
}

// NewSetTextPatch creates a SetText patch.
func NewSetTextPatch(hid, text string) Patch {
	return Patch{Op: PatchSetText, HID: hid, Value: text}
}

// NewInsertNodePatch creates an InsertNode patch. The node's HID is the
// patch target.
func NewInsertNodePatch(parentID string, index int, node *NodeWire) Patch {
	p := Patch{Op: PatchInsertNode, ParentID: parentID, Index: index, Node: node}
	if node != nil {
		p.HID = node.HID
	}
	return p
}

// NewRemoveNodePatch creates a RemoveNode patch.
func NewRemoveNodePatch(hid string) Patch {
	return Patch{Op: PatchRemoveNode, HID: hid}
}

// NewSetValuePatch creates a SetValue patch.
func NewSetValuePatch(hid, value string) Patch {
	return Patch{Op: PatchSetValue, HID: hid, Value: value}
}

// NewFocusPatch creates a Focus patch.
func NewFocusPatch(hid string) Patch {
	return Patch{Op: PatchFocus, HID: hid}
}

// NewScrollIntoViewPatch creates a ScrollIntoView patch.
func NewScrollIntoViewPatch(hid string, behavior ScrollBehavior, block string) Patch {
	return Patch{Op: PatchScrollIntoView, HID: hid, Behavior: behavior, Block: block}
}

// NewAddClassPatch creates an AddClass patch.
func NewAddClassPatch(hid, class string) Patch {
	return Patch{Op: PatchAddClass, HID: hid, Value: class}
}

// NewRemoveClassPatch creates a RemoveClass patch.
func NewRemoveClassPatch(hid, class string) Patch {
	return Patch{Op: PatchRemoveClass, HID: hid, Value: class}
}

// NewSubmitPatch creates a Submit patch for the form with the given HID.
func NewSubmitPatch(hid string) Patch {
	return Patch{Op: PatchSubmit, HID: hid}
}
