package infrastructure

import (
	"sync"

	"rsvpbot/internal/entities"
)

// SessionStore holds conversation sessions keyed by waid, in memory,
// for the life of the process. No eviction: guest lists are small and
// bounded by the invitation count.
type SessionStore struct {
	sessions map[string]*entities.Session
	mu       sync.RWMutex

	// DebugReset forces every session back to NEW before each inbound
	// message. Manual flow testing only; never enabled by default.
	DebugReset bool
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*entities.Session),
	}
}

// Get returns the session for waid, or nil when the guest has never
// written in.
func (s *SessionStore) Get(waid string) *entities.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[waid]
}

// GetOrCreate returns the existing session or creates one in NEW.
// When DebugReset is on, existing sessions are reset first.
func (s *SessionStore) GetOrCreate(waid string) *entities.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[waid]
	if !exists {
		session = &entities.Session{WaID: waid, State: entities.StateNew}
		s.sessions[waid] = session
		return session
	}
	if s.DebugReset {
		session.State = entities.StateNew
		session.ClearPending()
	}
	return session
}

// Put stores the session under waid, replacing any previous entry.
func (s *SessionStore) Put(waid string, session *entities.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[waid] = session
}

// Reset drops the session for waid entirely; the next message starts
// the flow over. Used by the operator debug endpoint.
func (s *SessionStore) Reset(waid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, waid)
}

// Len reports how many guests currently have a session.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
