package protocol

import "encoding/binary"

// Encoder appends protocol values to a growing buffer. The zero value is
// ready to use.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder sized for a typical patches frame.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 128)}
}

// Bytes returns the encoded data. The slice aliases the buffer until the
// next Reset.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset empties the buffer and keeps its capacity.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

func (e *Encoder) PutByte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *Encoder) PutUvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

func (e *Encoder) PutUint16(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

// PutString writes the byte length as a uvarint, then the bytes.
func (e *Encoder) PutString(s string) {
	e.PutUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// PutBool writes 1 for true and 0 for false.
func (e *Encoder) PutBool(b bool) {
	var v byte
	if b {
		v = 1
	}
	e.PutByte(v)
}
