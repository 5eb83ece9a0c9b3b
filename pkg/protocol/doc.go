// Package protocol implements the binary wire protocol between the browser
// thin client and the validation server.
//
// Events flow from client to server when a user types into, leaves or
// submits a form. Patches flow back and describe the DOM changes the
// validator made: class toggles, error-message nodes, focus and scrolling.
//
// # Wire Format
//
// Every websocket message is one frame with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Encoding
//
//   - Varint: compact encoding for small integers (protobuf-style)
//   - Length-prefixed: strings prefixed with their varint length
//   - Big-endian: fixed-width integers
//
// # Events
//
//	[Seq: varint][Type: 1 byte][HID: len-prefixed string][payload]
//
// Input and Change carry the control's value. Submit carries the form's
// fields as a count followed by name/value pairs. Blur and Focus carry
// nothing.
//
// # Patches
//
//	[Seq: varint][Count: varint]{[Op: 1 byte][HID: len-prefixed][data]}*
//
// An op the decoder does not know is read as op and HID only, so new ops
// must not carry data.
//
// # Limits
//
// Decoding is bounded: strings are capped at DefaultMaxAllocation,
// collections at MaxCollectionCount and node trees at MaxNodeDepth.
package protocol
