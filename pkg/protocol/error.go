package protocol

import "fmt"

// ErrorCode tells the client why an event was rejected.
type ErrorCode uint16

// Client errors are below 0x100, server errors from 0x100.
const (
	ErrInvalidFrame    ErrorCode = 0x0001 // Malformed or unexpected frame
	ErrInvalidEvent    ErrorCode = 0x0002 // Malformed event, or an event its target cannot take
	ErrHandlerNotFound ErrorCode = 0x0003 // No control or validated form has the HID
	ErrServerError     ErrorCode = 0x0100 // Handler failed or panicked
)

var errorCodeNames = map[ErrorCode]string{
	ErrInvalidFrame:    "InvalidFrame",
	ErrInvalidEvent:    "InvalidEvent",
	ErrHandlerNotFound: "HandlerNotFound",
	ErrServerError:     "ServerError",
}

func (ec ErrorCode) String() string {
	if name, ok := errorCodeNames[ec]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%#04x)", uint16(ec))
}

// ErrorMessage is the payload of a FrameError: a big-endian code, the
// message string and a fatal flag.
type ErrorMessage struct {
	Code    ErrorCode
	Message string
	Fatal   bool // The server closes the connection after sending it
}

// NewError returns a non-fatal ErrorMessage.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}

func (em *ErrorMessage) Error() string {
	msg := em.Code.String() + ": " + em.Message
	if em.Fatal {
		return "fatal: " + msg
	}
	return msg
}

// EncodeErrorMessage returns the FrameError payload for em.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.PutUint16(uint16(em.Code))
	e.PutString(em.Message)
	e.PutBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage parses a FrameError payload.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	var em ErrorMessage
	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	em.Code = ErrorCode(code)
	if em.Message, err = d.ReadString(); err != nil {
		return nil, err
	}
	if em.Fatal, err = d.ReadBool(); err != nil {
		return nil, err
	}
	return &em, nil
}
