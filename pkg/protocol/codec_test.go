package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16383, 16384, 1<<32 + 7, 1<<64 - 1}
	e := NewEncoder()
	for _, v := range values {
		e.PutUvarint(v)
	}
	d := NewDecoder(e.Bytes())
	for _, want := range values {
		got, err := d.ReadUvarint()
		if err != nil {
			t.Fatalf("ReadUvarint() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadUvarint() = %d, want %d", got, want)
		}
	}
	if !d.EOF() {
		t.Errorf("Remaining() = %d, want 0", d.Remaining())
	}
}

func TestDecoderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(*Decoder) error
		want error
	}{
		{
			name: "truncated varint",
			data: []byte{0x80},
			read: func(d *Decoder) error { _, err := d.ReadUvarint(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "varint overflow",
			data: bytes.Repeat([]byte{0xFF}, 11),
			read: func(d *Decoder) error { _, err := d.ReadUvarint(); return err },
			want: ErrVarintOverflow,
		},
		{
			name: "string longer than buffer",
			data: []byte{0x05, 'a', 'b'},
			read: func(d *Decoder) error { _, err := d.ReadString(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "string over allocation limit",
			data: func() []byte {
				e := NewEncoder()
				e.PutUvarint(DefaultMaxAllocation + 1)
				return e.Bytes()
			}(),
			read: func(d *Decoder) error { _, err := d.ReadString(); return err },
			want: ErrAllocationTooLarge,
		},
		{
			name: "collection over limit",
			data: func() []byte {
				e := NewEncoder()
				e.PutUvarint(MaxCollectionCount + 1)
				return e.Bytes()
			}(),
			read: func(d *Decoder) error { _, err := d.ReadCollectionCount(); return err },
			want: ErrCollectionTooLarge,
		},
		{
			name: "collection larger than buffer",
			data: []byte{0x10, 0x00},
			read: func(d *Decoder) error { _, err := d.ReadCollectionCount(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "short uint16",
			data: []byte{0x01},
			read: func(d *Decoder) error { _, err := d.ReadUint16(); return err },
			want: io.ErrUnexpectedEOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewDecoder(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFrameEncodeDecode(t *testing.T) {
	payload := []byte("hello")
	data, err := NewFrame(FramePatches, payload).Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if want := []byte{0x02, 0x00, 0x00, 0x05}; !bytes.Equal(data[:4], want) {
		t.Errorf("header = %x, want %x", data[:4], want)
	}

	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if f.Type != FramePatches || !bytes.Equal(f.Payload, payload) {
		t.Errorf("DecodeFrame() = %+v", f)
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}
	again, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if again.Type != FramePatches || string(again.Payload) != "hello" {
		t.Errorf("ReadFrame() = %+v", again)
	}
}

func TestFrameErrors(t *testing.T) {
	if _, err := NewFrame(FrameEvent, make([]byte, MaxPayloadSize+1)).Encode(); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("oversized Encode() error = %v, want ErrFrameTooLarge", err)
	}
	if _, err := DecodeFrame([]byte{0x01, 0x00}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("short header error = %v", err)
	}
	if _, err := DecodeFrame([]byte{0x01, 0x00, 0x00, 0x04, 'a'}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("short payload error = %v", err)
	}
	// A 16-bit length wraps for oversized messages.
	oversized := make([]byte, FrameHeaderSize+MaxPayloadSize+5)
	oversized[0], oversized[3] = byte(FrameEvent), 4
	if _, err := DecodeFrame(oversized); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("oversized DecodeFrame() error = %v, want ErrFrameTooLarge", err)
	}
	if _, err := DecodeFrame([]byte{0x09, 0x00, 0x00, 0x00}); !errors.Is(err, ErrInvalidFrameType) {
		t.Errorf("unknown type error = %v", err)
	}
}

func TestErrorMessageRoundTrip(t *testing.T) {
	em := &ErrorMessage{Code: ErrHandlerNotFound, Message: "no control h42", Fatal: true}
	got, err := DecodeErrorMessage(EncodeErrorMessage(em))
	if err != nil {
		t.Fatalf("DecodeErrorMessage() error = %v", err)
	}
	if *got != *em {
		t.Errorf("got %+v, want %+v", got, em)
	}
	if got.Error() != "fatal: HandlerNotFound: no control h42" {
		t.Errorf("Error() = %q", got.Error())
	}
	if s := ErrorCode(0x42).String(); s != "ErrorCode(0x0042)" {
		t.Errorf("unknown code String() = %q", s)
	}
}
