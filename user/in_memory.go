// Package user houses the account Store contract and its in-memory
// implementation, owned by the security agent. Durable backends slot in at
// wiring time without touching agent code.
package user

import (
	"errors"
	"sync"
	"time"

	"github.com/DMIE-inteligencia/iara/core"
)

var (
	// ErrNotFound is returned when a user id or username is unknown.
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering a duplicate username.
	ErrUsernameTaken = errors.New("username already exists")
)

// Store persists user accounts for the security agent.
type Store interface {
	Create(username, passwordHash, email string) (*core.User, error)
	GetByID(userID string) (*core.User, error)
	GetByUsername(username string) (*core.User, error)
	Update(userID string, update func(u *core.User)) (*core.User, error)
}

// InMemoryStore is a volatile Store keeping accounts in process-local maps.
// Safe for concurrent access; returned users are clones.
type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*core.User
	byUsername map[string]string // username -> user id
}

// NewInMemoryStore constructs an empty user store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[string]*core.User),
		byUsername: make(map[string]string),
	}
}

// Create registers a new account, enforcing username uniqueness.
func (s *InMemoryStore) Create(username, passwordHash, email string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[username]; taken {
		return nil, ErrUsernameTaken
	}
	u := &core.User{
		UserID:       core.NewID(),
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		CreatedAt:    time.Now().UTC(),
	}
	s.byID[u.UserID] = u
	s.byUsername[username] = u.UserID
	return u.Clone(), nil
}

// GetByID returns a clone of the user or ErrNotFound.
func (s *InMemoryStore) GetByID(userID string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

// GetByUsername returns a clone of the user or ErrNotFound.
func (s *InMemoryStore) GetByUsername(username string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// Update applies the mutation to the stored user under the lock and returns
// the updated clone. The username is immutable through this path.
func (s *InMemoryStore) Update(userID string, update func(u *core.User)) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	update(u)
	return u.Clone(), nil
}
