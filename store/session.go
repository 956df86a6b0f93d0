package store

import (
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// Session owns one conversation for the lifetime of one browser session.
// All conversation-mutating operations for a session run under its mutex,
// so at most one request is in flight against the store at a time.
type Session struct {
	ID           string
	Conversation *Conversation

	mu       sync.Mutex
	lastSeen time.Time
}

// Lock serializes conversation access for this session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// SessionManager creates and resolves sessions. Sessions idle longer than
// the TTL are dropped by Sweep.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessionManager creates a session manager with the given idle TTL.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create starts a new session with an empty conversation.
func (m *SessionManager) Create() *Session {
	session := &Session{
		ID:           shortuuid.New(),
		Conversation: &Conversation{},
		lastSeen:     time.Now(),
	}
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

// Get resolves a session by ID and refreshes its idle timer.
// Returns nil if the session does not exist (expired or never created).
func (m *SessionManager) Get(id string) *Session {
	m.mu.RLock()
	session := m.sessions[id]
	m.mu.RUnlock()
	if session != nil {
		session.mu.Lock()
		session.lastSeen = time.Now()
		session.mu.Unlock()
	}
	return session
}

// Drop tears a session down.
func (m *SessionManager) Drop(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle longer than the TTL and returns how many were
// dropped. Callers run this periodically.
func (m *SessionManager) Sweep() int {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for id, session := range m.sessions {
		session.mu.Lock()
		idle := session.lastSeen.Before(cutoff)
		session.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			dropped++
		}
	}
	return dropped
}
