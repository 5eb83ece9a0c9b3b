package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sigrams/livevalidate/pkg/dom"
	"github.com/sigrams/livevalidate/pkg/domui"
	"github.com/sigrams/livevalidate/pkg/middleware"
	"github.com/sigrams/livevalidate/pkg/protocol"
	"github.com/sigrams/livevalidate/pkg/validate"
)

// Session is one websocket connection validating one page. The page tree
// and its bindings are only touched from the read loop.
type Session struct {
	ID        string
	Page      string
	CreatedAt time.Time

	conn   *websocket.Conn
	mu     sync.Mutex // Protects conn writes
	closed atomic.Bool
	done   chan struct{}

	host      *domui.Host
	validator *validate.Validator[*dom.Node]
	forms     []*dom.Node
	chain     middleware.Chain
	metrics   *middleware.Metrics

	config  *SessionConfig
	logger  *slog.Logger
	onClose func(*Session)

	eventCount atomic.Uint64
	patchCount atomic.Uint64
	bytesSent  atomic.Uint64
	bytesRecv  atomic.Uint64
}

// generateSessionID generates a random session ID.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

type sessionDeps struct {
	checker *validate.Checker
	ui      domui.Config
	chain   middleware.Chain
	metrics *middleware.Metrics
	config  *SessionConfig
	logger  *slog.Logger
	onClose func(*Session)
}

// newSession binds a freshly parsed page to conn and wires validation onto
// its marked forms.
func newSession(conn *websocket.Conn, page string, doc *dom.Node, deps sessionDeps) *Session {
	id := generateSessionID()
	logger := deps.logger.With("session_id", id, "page", page)

	ui := deps.ui
	ui.Logger = logger
	host := domui.NewHost(doc, ui)

	var opts []validate.Option
	if deps.metrics != nil {
		opts = append(opts, validate.WithObserver(deps.metrics))
	}
	v := validate.New[*dom.Node](host, deps.checker, opts...)

	s := &Session{
		ID:        id,
		Page:      page,
		CreatedAt: time.Now(),
		conn:      conn,
		done:      make(chan struct{}),
		host:      host,
		validator: v,
		chain:     deps.chain,
		metrics:   deps.metrics,
		config:    deps.config,
		logger:    logger,
		onClose:   deps.onClose,
	}
	s.forms = v.Attach(host, host.MarkedForms())
	return s
}

// Forms returns the forms wired for live validation.
func (s *Session) Forms() []*dom.Node {
	return s.forms
}

// writeFrame sends one binary frame.
func (s *Session) writeFrame(ft protocol.FrameType, payload []byte) error {
	data, err := protocol.NewFrame(ft, payload).Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.conn == nil {
		return ErrNoConnection
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return &SessionError{SessionID: s.ID, Op: "write", Err: err}
	}
	s.bytesSent.Add(uint64(len(data)))
	return nil
}

// sendPatches sends the patches produced by the event with sequence seq.
func (s *Session) sendPatches(seq uint64, patches []protocol.Patch) error {
	payload := protocol.EncodePatches(&protocol.PatchesFrame{Seq: seq, Patches: patches})
	if err := s.writeFrame(protocol.FramePatches, payload); err != nil {
		return err
	}
	s.patchCount.Add(uint64(len(patches)))
	if s.metrics != nil {
		s.metrics.RecordPatches(len(patches))
	}
	return nil
}

// sendErrorMessage sends an error frame to the client.
func (s *Session) sendErrorMessage(code protocol.ErrorCode, message string) {
	payload := protocol.EncodeErrorMessage(protocol.NewError(code, message))
	if err := s.writeFrame(protocol.FrameError, payload); err != nil {
		s.logger.Debug("error frame not sent", "code", code, "error", err)
	}
}

// sendPing sends a heartbeat ping.
func (s *Session) sendPing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.conn == nil {
		return ErrNoConnection
	}
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout))
}

// Close closes the connection once and unregisters the session.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	close(s.done)

	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = s.conn.Close()
	}
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose(s)
	}
	s.logger.Info("session closed",
		"events", s.eventCount.Load(),
		"patches", s.patchCount.Load(),
		"bytes_sent", s.bytesSent.Load(),
		"bytes_recv", s.bytesRecv.Load())
}

// IsClosed reports whether the session is closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done returns a channel that is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SessionStats is a snapshot of a session's counters.
type SessionStats struct {
	Events    uint64
	Patches   uint64
	BytesSent uint64
	BytesRecv uint64
}

// Stats returns the session's counters.
func (s *Session) Stats() SessionStats {
	return SessionStats{
		Events:    s.eventCount.Load(),
		Patches:   s.patchCount.Load(),
		BytesSent: s.bytesSent.Load(),
		BytesRecv: s.bytesRecv.Load(),
	}
}
