package protocol

import (
	"errors"
	"sort"
)

// EventType identifies the DOM event a client forwards.
type EventType uint8

const (
	EventInput  EventType = 0x10
	EventChange EventType = 0x11
	EventSubmit EventType = 0x12
	EventFocus  EventType = 0x13
	EventBlur   EventType = 0x14
)

var eventTypeNames = map[EventType]string{
	EventInput:  "Input",
	EventChange: "Change",
	EventSubmit: "Submit",
	EventFocus:  "Focus",
	EventBlur:   "Blur",
}

func (et EventType) String() string {
	if name, ok := eventTypeNames[et]; ok {
		return name
	}
	return "Unknown"
}

// SubmitEventData holds the form's successful controls at submit time.
type SubmitEventData struct {
	Fields map[string]string
}

// Event is one client event. The wire form is seq (uvarint), type (byte)
// and HID (string), followed by a payload that depends on the type:
//
//	Input, Change  value string
//	Submit         uvarint count, then name and value strings
//	Focus, Blur    nothing
type Event struct {
	Seq     uint64
	Type    EventType
	HID     string
	Payload any // string for Input/Change, *SubmitEventData for Submit
}

// Value returns the string payload of an Input or Change event.
func (e *Event) Value() string {
	s, _ := e.Payload.(string)
	return s
}

// Fields returns the submitted fields of a Submit event.
func (e *Event) Fields() map[string]string {
	if d, ok := e.Payload.(*SubmitEventData); ok && d != nil {
		return d.Fields
	}
	return nil
}

var ErrInvalidEventType = errors.New("protocol: invalid event type")

// EncodeEvent returns the wire form of e.
func EncodeEvent(e *Event) []byte {
	enc := NewEncoder()
	EncodeEventTo(enc, e)
	return enc.Bytes()
}

// EncodeEventTo appends e to enc. Submit fields are written in name order.
func EncodeEventTo(enc *Encoder, e *Event) {
	enc.PutUvarint(e.Seq)
	enc.PutByte(byte(e.Type))
	enc.PutString(e.HID)

	switch e.Type {
	case EventInput, EventChange:
		enc.PutString(e.Value())
	case EventSubmit:
		fields := e.Fields()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		enc.PutUvarint(uint64(len(names)))
		for _, name := range names {
			enc.PutString(name)
			enc.PutString(fields[name])
		}
	}
}

// DecodeEvent parses an event payload.
func DecodeEvent(data []byte) (*Event, error) {
	return DecodeEventFrom(NewDecoder(data))
}

// DecodeEventFrom reads one event from d.
func DecodeEventFrom(d *Decoder) (*Event, error) {
	e := new(Event)
	var err error
	if e.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	t, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	e.Type = EventType(t)
	if e.HID, err = d.ReadString(); err != nil {
		return nil, err
	}

	switch e.Type {
	case EventInput, EventChange:
		value, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		e.Payload = value
	case EventSubmit:
		fields, err := decodeFields(d)
		if err != nil {
			return nil, err
		}
		e.Payload = &SubmitEventData{Fields: fields}
	case EventFocus, EventBlur:
	default:
		return nil, ErrInvalidEventType
	}
	return e, nil
}

func decodeFields(d *Decoder) (map[string]string, error) {
	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string, n)
	for i := 0; i < n; i++ {
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		if fields[name], err = d.ReadString(); err != nil {
			return nil, err
		}
	}
	return fields, nil
}
