package protocol

import (
	"encoding/binary"
	"io"
)

// Decoder reads protocol values from one message. Reading past the end
// returns io.ErrUnexpectedEOF.
type Decoder struct {
	data []byte
	off  int
}

// NewDecoder returns a Decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

// EOF reports whether the whole message has been consumed.
func (d *Decoder) EOF() bool {
	return d.Remaining() <= 0
}

// ReadByte implements io.ByteReader.
func (d *Decoder) ReadByte() (byte, error) {
	if d.EOF() {
		return 0, io.ErrUnexpectedEOF
	}
	b := d.data[d.off]
	d.off++
	return b, nil
}

func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.data[d.off:])
	switch {
	case n > 0:
		d.off += n
		return v, nil
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	default:
		return 0, ErrVarintOverflow
	}
}

func (d *Decoder) ReadUint16() (uint16, error) {
	if d.Remaining() < 2 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint16(d.data[d.off:])
	d.off += 2
	return v, nil
}

// ReadBool treats any non-zero byte as true.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	return b != 0, err
}

// ReadString reads a uvarint length and that many bytes.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	switch {
	case n > DefaultMaxAllocation:
		return "", ErrAllocationTooLarge
	case n > uint64(d.Remaining()):
		return "", io.ErrUnexpectedEOF
	}
	end := d.off + int(n)
	s := string(d.data[d.off:end])
	d.off = end
	return s, nil
}

// ReadCollectionCount reads an item count. Every item takes at least one
// byte, so a count above the unread length is truncated input.
func (d *Decoder) ReadCollectionCount() (int, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	switch {
	case n > MaxCollectionCount:
		return 0, ErrCollectionTooLarge
	case n > uint64(d.Remaining()):
		return 0, io.ErrUnexpectedEOF
	}
	return int(n), nil
}
