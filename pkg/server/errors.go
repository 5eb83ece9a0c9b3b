package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for session and server conditions.
var (
	// ErrSessionClosed is returned when writing to a closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrHandlerNotFound is returned when an event targets an unknown HID
	// or a form without validation.
	ErrHandlerNotFound = errors.New("server: handler not found")

	// ErrInvalidTarget is returned when an event does not fit its target,
	// for example Input on a div.
	ErrInvalidTarget = errors.New("server: invalid event target")

	// ErrNoConnection is returned when a session has no websocket.
	ErrNoConnection = errors.New("server: no connection")
)

// SessionError wraps an error with session context.
type SessionError struct {
	SessionID string
	Op        string
	Err       error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// HandlerError wraps a panic raised while applying an event.
type HandlerError struct {
	SessionID string
	HID       string
	EventType string
	Panic     any
}

// Error returns the error message with event context.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("server: session %s: panic handling %s on %s: %v", e.SessionID, e.EventType, e.HID, e.Panic)
}
