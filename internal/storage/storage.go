// Package storage holds in-memory state: the per-session build store and
// the server-wide session map.
package storage

import (
	"sync"
)

// SessionStore keeps live sessions keyed by ID
type SessionStore[T any] struct {
	sessions map[string]T
	mu       sync.RWMutex
}

// New creates an empty session store
func New[T any]() *SessionStore[T] {
	return &SessionStore[T]{
		sessions: make(map[string]T),
	}
}

func (s *SessionStore[T]) Get(sessionID string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore[T]) Set(sessionID string, session T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
}

func (s *SessionStore[T]) GetAll() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]T, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

// Delete removes a session and reports whether it existed
func (s *SessionStore[T]) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	return exists
}

// DeleteFunc removes every session for which del returns true and returns
// the removed IDs
func (s *SessionStore[T]) DeleteFunc(del func(id string, session T) bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, session := range s.sessions {
		if del(id, session) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (s *SessionStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
