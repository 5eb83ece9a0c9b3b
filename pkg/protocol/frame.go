package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// FrameHeaderSize is the header length: type, flags and a big-endian
	// uint16 payload length.
	FrameHeaderSize = 4

	// MaxPayloadSize is the largest payload the length field can express.
	MaxPayloadSize = 1<<16 - 1
)

// FrameType identifies what a frame's payload holds.
type FrameType uint8

const (
	FrameEvent   FrameType = 0x01 // client to server: one Event
	FramePatches FrameType = 0x02 // server to client: one PatchesFrame
	FrameError   FrameType = 0x05 // server to client: one ErrorMessage
)

func (ft FrameType) String() string {
	switch ft {
	case FrameEvent:
		return "Event"
	case FramePatches:
		return "Patches"
	case FrameError:
		return "Error"
	}
	return "Unknown"
}

func (ft FrameType) valid() bool {
	return ft == FrameEvent || ft == FramePatches || ft == FrameError
}

var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is one websocket message.
type Frame struct {
	Type    FrameType
	Flags   uint8 // reserved, zero
	Payload []byte
}

// NewFrame wraps payload in a frame of type ft.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode returns the header followed by the payload.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	out := make([]byte, 0, FrameHeaderSize+len(f.Payload))
	out = append(out, byte(f.Type), f.Flags)
	out = binary.BigEndian.AppendUint16(out, uint16(len(f.Payload)))
	return append(out, f.Payload...), nil
}

// DecodeFrame parses one complete websocket message. Bytes after the
// declared payload are ignored; the payload is copied. A message longer
// than any frame can be fails with ErrFrameTooLarge.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	if len(data) > FrameHeaderSize+MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	f := &Frame{Type: FrameType(data[0]), Flags: data[1]}
	if !f.Type.valid() {
		return nil, ErrInvalidFrameType
	}
	end := FrameHeaderSize + int(binary.BigEndian.Uint16(data[2:FrameHeaderSize]))
	if len(data) < end {
		return nil, io.ErrUnexpectedEOF
	}
	f.Payload = append([]byte(nil), data[FrameHeaderSize:end]...)
	return f, nil
}

// ReadFrame reads one frame from a byte stream.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	data := make([]byte, FrameHeaderSize+int(binary.BigEndian.Uint16(header[2:])))
	copy(data, header[:])
	if _, err := io.ReadFull(r, data[FrameHeaderSize:]); err != nil {
		return nil, err
	}
	return DecodeFrame(data)
}

// WriteFrame encodes f and writes it to w.
func WriteFrame(w io.Writer, f *Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
