// Package session implements editor sessions: the per-tab state created
// when the shared-secret gate succeeds.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/folio-sh/folio/internal/editor"
)

// Session represents one authenticated editor tab. It owns at most one
// open edit session at a time; opening a second edit implicitly discards
// the first.
type Session struct {
	ID           string
	edit         *editor.Session
	connections  map[string]struct{} // live channel connection IDs
	createdAt    time.Time
	lastActivity time.Time
	mu           sync.RWMutex
}

// NewSession creates a new session with the given ID.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		connections:  make(map[string]struct{}),
		createdAt:    now,
		lastActivity: now,
	}
}

// Edit returns the open edit session, if any.
func (s *Session) Edit() (*editor.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edit, s.edit != nil
}

// SetEdit replaces the open edit session, discarding any prior draft.
func (s *Session) SetEdit(e *editor.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit != nil {
		s.edit.Discard()
	}
	s.edit = e
	s.lastActivity = time.Now()
}

// ClearEdit releases the open edit session. Always succeeds, so closing
// an editor never leaves server-held edit state behind.
func (s *Session) ClearEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit != nil {
		s.edit.Discard()
		s.edit = nil
	}
	s.lastActivity = time.Now()
}

// AddConnection registers a live channel connection.
func (s *Session) AddConnection(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[connectionID] = struct{}{}
	s.lastActivity = time.Now()
}

// RemoveConnection unregisters a connection. Returns true if this was the
// last one.
func (s *Session) RemoveConnection(connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, connectionID)
	s.lastActivity = time.Now()
	return len(s.connections) == 0
}

// ConnectionCount returns the number of live connections.
func (s *Session) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// Touch updates the lastActivity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns the last activity time.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// GenerateSessionID creates a unique session identifier.
func GenerateSessionID() string {
	return uuid.NewString()
}
