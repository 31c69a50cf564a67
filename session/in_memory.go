package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/DMIE-inteligencia/iara/core"
)

// ErrNotFound is returned when a session id is unknown to the store.
var ErrNotFound = errors.New("session not found")

// Store persists chat sessions and their message history. The dialogue agent
// owns its Store instance; no other component touches it directly.
type Store interface {
	Create(session *core.ChatSession) error
	Get(sessionID string) (*core.ChatSession, error)
	List(userID string) ([]*core.ChatSession, error)
	AppendMessage(sessionID string, msg core.ChatMessage) error
	Delete(sessionID string) error
}

// InMemoryStore is a volatile Store implementation keeping sessions in a
// process local map. It is safe for concurrent access and hands out clones
// so callers can never mutate internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.ChatSession
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.ChatSession)}
}

// Create stores a clone of the session, overwriting any previous session with
// the same id.
func (s *InMemoryStore) Create(session *core.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session.Clone()
	return nil
}

// Get returns a clone of the session or ErrNotFound.
func (s *InMemoryStore) Get(sessionID string) (*core.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return session.Clone(), nil
}

// List returns clones of every session owned by the user, newest first.
func (s *InMemoryStore) List(userID string) ([]*core.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sessions []*core.ChatSession
	for _, session := range s.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session.Clone())
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// AppendMessage adds a message to the session history and bumps UpdatedAt.
func (s *InMemoryStore) AppendMessage(sessionID string, msg core.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	session.Messages = append(session.Messages, msg)
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes the session or returns ErrNotFound.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
