package dom

import (
	"fmt"
	"sync"
)

// HIDAttr is the attribute that carries a node's hydration ID in rendered
// markup.
const HIDAttr = "data-hid"

// HIDGenerator generates unique hydration IDs.
type HIDGenerator struct {
	counter uint32
	mu      sync.Mutex
}

// NewHIDGenerator creates a new HIDGenerator.
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next hydration ID (e.g., "h1", "h2", ...).
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("h%d", g.counter)
}

// Current returns the current counter value without incrementing.
func (g *HIDGenerator) Current() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// AssignHIDs gives every element under root a HID in document order.
// Two trees parsed from the same markup receive the same IDs.
func AssignHIDs(root *Node, gen *HIDGenerator) {
	if root == nil {
		return
	}
	root.walk(func(n *Node) bool {
		if n.Kind == KindElement {
			n.HID = gen.Next()
		}
		return true
	})
}

// AssignHID gives n and its element descendants fresh HIDs. Used for nodes
// created after the initial assignment.
func AssignHID(n *Node, gen *HIDGenerator) {
	AssignHIDs(n, gen)
}

// CollectHIDs returns a map of HID to node for all nodes with HIDs.
func CollectHIDs(root *Node) map[string]*Node {
	out := make(map[string]*Node)
	if root == nil {
		return out
	}
	root.walk(func(n *Node) bool {
		if n.HID != "" {
			out[n.HID] = n
		}
		return true
	})
	return out
}
