package protocol

import "errors"

// Decoding limits. A frame carries at most MaxPayloadSize bytes, so these
// only trip on corrupt or hostile input.
const (
	// DefaultMaxAllocation caps a single decoded string.
	DefaultMaxAllocation = 1 << 20

	// MaxCollectionCount caps attribute, child, patch and field counts.
	MaxCollectionCount = 10_000

	// MaxNodeDepth caps node nesting inside an InsertNode patch. Error
	// nodes are one or two levels deep.
	MaxNodeDepth = 64
)

// Decoding errors.
var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
	ErrMaxDepthExceeded   = errors.New("protocol: maximum nesting depth exceeded")
)

func checkDepth(depth, limit int) error {
	if depth > limit {
		return ErrMaxDepthExceeded
	}
	return nil
}
