package session

import (
	"sync"
	"time"
)

// Manager tracks all authenticated sessions.
type Manager struct {
	sessions map[string]*Session
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewManager creates a session manager. A zero timeout means sessions
// never expire.
func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		timeout:  timeout,
	}
}

// Create makes a new session and returns it.
func (m *Manager) Create() *Session {
	s := NewSession(GenerateSessionID())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s
}

// Get retrieves a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Exists checks whether a session ID is valid.
func (m *Manager) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[id]
	return ok
}

// Destroy removes a session, discarding any open edit.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.ClearEdit()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpired destroys sessions idle longer than the timeout and
// returns how many were removed.
func (m *Manager) CleanupExpired() int {
	if m.timeout == 0 {
		return 0
	}

	cutoff := time.Now().Add(-m.timeout)

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.Destroy(id)
	}
	return len(expired)
}
