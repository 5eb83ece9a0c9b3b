package server

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sigrams/livevalidate/pkg/middleware"
	"github.com/sigrams/livevalidate/pkg/protocol"
	"github.com/sigrams/livevalidate/pkg/validate"
)

// ReadLoop reads frames until the connection closes or ctx is cancelled.
// Events are handled inline, one at a time.
func (s *Session) ReadLoop(ctx context.Context) {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		s.bytesRecv.Add(uint64(len(msg)))

		frame, err := protocol.DecodeFrame(msg)
		if errors.Is(err, protocol.ErrFrameTooLarge) {
			s.logger.Warn("oversized frame refused", "size", len(msg))
			s.sendErrorMessage(protocol.ErrInvalidFrame, fmt.Sprintf("Frame of %d bytes exceeds %d", len(msg), protocol.FrameHeaderSize+protocol.MaxPayloadSize))
			continue
		}
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			s.sendErrorMessage(protocol.ErrInvalidFrame, "Invalid frame")
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEventFrame(ctx, frame.Payload)
		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type)
			s.sendErrorMessage(protocol.ErrInvalidFrame, "Unexpected frame type")
		}
	}
}

// HeartbeatLoop pings the client until the session ends.
func (s *Session) HeartbeatLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sendPing(); err != nil {
				s.logger.Debug("ping failed", "error", err)
				return
			}
		case <-s.done:
			return
		}
	}
}

// handleEventFrame decodes an event and runs it through the middleware
// chain.
func (s *Session) handleEventFrame(ctx context.Context, payload []byte) {
	event, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.logger.Warn("event decode error", "error", err)
		s.sendErrorMessage(protocol.ErrInvalidEvent, "Invalid event format")
		return
	}
	s.eventCount.Add(1)

	ec := middleware.NewEventCtx(ctx, s.Page, s.ID, event)
	err = s.chain.Run(ec, func() error { return s.handleEvent(ec) })
	switch {
	case err == nil:
	case errors.Is(err, ErrHandlerNotFound):
		s.sendErrorMessage(protocol.ErrHandlerNotFound, err.Error())
	case errors.Is(err, ErrInvalidTarget):
		s.sendErrorMessage(protocol.ErrInvalidEvent, err.Error())
	case errors.Is(err, ErrSessionClosed):
	default:
		s.logger.Error("event failed", "error", err, "hid", event.HID, "type", event.Type)
		s.sendErrorMessage(protocol.ErrServerError, "Internal error")
	}
}

// handleEvent applies the event and sends the resulting patches.
func (s *Session) handleEvent(ec *middleware.EventCtx) (err error) {
	event := ec.Event
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event panic", "panic", r, "stack", string(debug.Stack()))
			s.host.Flush()
			err = &HandlerError{SessionID: s.ID, HID: event.HID, EventType: event.Type.String(), Panic: r}
		}
	}()

	if err := s.apply(event); err != nil {
		s.host.Flush()
		return err
	}

	patches := s.host.Flush()
	ec.PatchCount = len(patches)
	s.logger.Debug("event applied", "type", event.Type, "hid", event.HID, "patches", len(patches))
	return s.sendPatches(event.Seq, patches)
}

// apply mutates the page for one event. Validation patches accumulate on
// the host.
func (s *Session) apply(event *protocol.Event) error {
	target, ok := s.host.Lookup(event.HID)
	if !ok {
		return fmt.Errorf("%w: unknown hid %q", ErrHandlerNotFound, event.HID)
	}

	switch event.Type {
	case protocol.EventInput, protocol.EventChange:
		if !target.IsControl() {
			return fmt.Errorf("%w: %s on <%s>", ErrInvalidTarget, event.Type, target.Tag)
		}
		target.SetFormValue(event.Value())
		s.host.Dispatch(target, validate.EventInput)

	case protocol.EventBlur:
		s.host.Dispatch(target, validate.EventBlur)

	case protocol.EventFocus:
		// Nothing validates on focus.

	case protocol.EventSubmit:
		if !target.IsElement("form") {
			return fmt.Errorf("%w: submit on <%s>", ErrInvalidTarget, target.Tag)
		}
		if !s.host.HasListeners(target, validate.EventSubmit) {
			return fmt.Errorf("%w: form %q is not validated", ErrHandlerNotFound, event.HID)
		}
		s.host.ApplyValues(target, event.Fields())
		if prevented := s.host.Dispatch(target, validate.EventSubmit); !prevented {
			s.host.Emit(protocol.NewSubmitPatch(target.HID))
		}

	default:
		return fmt.Errorf("%w: event type %d", ErrInvalidTarget, event.Type)
	}
	return nil
}
