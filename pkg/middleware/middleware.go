package middleware

import (
	"context"

	"github.com/sigrams/livevalidate/pkg/protocol"
)

// EventCtx carries one websocket event through the chain.
type EventCtx struct {
	// Context is the request context; tracing middleware replaces it with
	// a span context.
	Context context.Context

	Page      string
	SessionID string
	Event     *protocol.Event

	// PatchCount is set by the handler once the event's patches are known.
	PatchCount int

	values map[any]any
}

// NewEventCtx creates an EventCtx for event.
func NewEventCtx(ctx context.Context, page, sessionID string, event *protocol.Event) *EventCtx {
	if ctx == nil {
		ctx = context.Background()
	}
	return &EventCtx{Context: ctx, Page: page, SessionID: sessionID, Event: event}
}

// EventType returns the event's type name, or "unknown".
func (c *EventCtx) EventType() string {
	if c.Event == nil {
		return "unknown"
	}
	return c.Event.Type.String()
}

// SetValue stores a value on the context.
func (c *EventCtx) SetValue(key, value any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = value
}

// Value returns a value stored with SetValue.
func (c *EventCtx) Value(key any) any {
	return c.values[key]
}

// Middleware wraps event handling.
type Middleware interface {
	Handle(ctx *EventCtx, next func() error) error
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(ctx *EventCtx, next func() error) error

// Handle calls f.
func (f MiddlewareFunc) Handle(ctx *EventCtx, next func() error) error {
	return f(ctx, next)
}

// Chain runs middleware in order, outermost first.
type Chain []Middleware

// Run executes the chain around final.
func (ch Chain) Run(ctx *EventCtx, final func() error) error {
	var run func(i int) error
	run = func(i int) error {
		if i == len(ch) {
			return final()
		}
		return ch[i].Handle(ctx, func() error { return run(i + 1) })
	}
	return run(0)
}
