package review

import (
	"fmt"
	"sync"
)

// Store is an in-memory registry of live sessions keyed by session ID.
// It is safe for concurrent use. Sessions are lost on service restart, which
// is acceptable: the warehouse remains the single source of truth and a
// reviewer simply starts a new session.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Put registers a session.
func (s *Store) Put(session *Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

// Get returns the live session for the given ID. Unlike a snapshot store this
// returns the shared pointer: handlers must operate on the same mutable
// working set and filter state.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Delete discards a session. The session is closed so that any in-flight
// submission observes the discard.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return false
	}
	session.Close()
	delete(s.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
