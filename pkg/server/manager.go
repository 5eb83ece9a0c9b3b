package server

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// SessionManager tracks the open sessions. It is safe for concurrent use.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64
	peakSessions int

	onSessionCreate func(*Session)
	onSessionClose  func(*Session)

	logger *slog.Logger
}

// NewSessionManager creates an empty SessionManager.
func NewSessionManager(logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		logger:   logger.With("component", "session_manager"),
	}
}

// Add registers a session and runs the create callback.
func (sm *SessionManager) Add(s *Session) {
	sm.mu.Lock()
	sm.sessions[s.ID] = s
	if n := len(sm.sessions); n > sm.peakSessions {
		sm.peakSessions = n
	}
	onCreate := sm.onSessionCreate
	sm.mu.Unlock()

	sm.totalCreated.Add(1)
	if onCreate != nil {
		onCreate(s)
	}
	sm.logger.Debug("session added", "session_id", s.ID, "page", s.Page)
}

// Get returns the session with the given ID, or nil.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Remove unregisters a session and runs the close callback. Removing an
// unknown ID does nothing.
func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	s, ok := sm.sessions[id]
	delete(sm.sessions, id)
	onClose := sm.onSessionClose
	sm.mu.Unlock()

	if !ok {
		return
	}
	sm.totalClosed.Add(1)
	if onClose != nil {
		onClose(s)
	}
}

// Count returns the number of open sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ForEach calls fn for every session in ID order until fn returns false.
func (sm *SessionManager) ForEach(fn func(*Session) bool) {
	sm.mu.RLock()
	list := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		list = append(list, s)
	}
	sm.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	for _, s := range list {
		if !fn(s) {
			return
		}
	}
}

// SetOnSessionCreate sets a callback run after a session is added.
func (sm *SessionManager) SetOnSessionCreate(fn func(*Session)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onSessionCreate = fn
}

// SetOnSessionClose sets a callback run after a session is removed.
func (sm *SessionManager) SetOnSessionClose(fn func(*Session)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onSessionClose = fn
}

// Shutdown closes every session.
func (sm *SessionManager) Shutdown() {
	sm.ForEach(func(s *Session) bool {
		s.Close()
		return true
	})
}

// ManagerStats is a snapshot of session counters.
type ManagerStats struct {
	Active       int
	Peak         int
	TotalCreated uint64
	TotalClosed  uint64
}

// Stats returns the current counters.
func (sm *SessionManager) Stats() ManagerStats {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return ManagerStats{
		Active:       len(sm.sessions),
		Peak:         sm.peakSessions,
		TotalCreated: sm.totalCreated.Load(),
		TotalClosed:  sm.totalClosed.Load(),
	}
}
