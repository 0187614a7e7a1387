// Package memstore provides an in-memory [goiam.UserStore] for tests and
// local development. It is not meant for production use; records vanish
// with the process.
package memstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	goiam "github.com/goiam-dev/goiam"
)

// UserStore is a map-backed user store, safe for concurrent use.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]goiam.User
	byEmail map[string]string
	nextID  int
}

// NewUserStore returns an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]goiam.User),
		byEmail: make(map[string]string),
	}
}

// Save implements [goiam.UserStore]. A new user gets a generated id; an
// email collision fails with [goiam.ErrDuplicateKey].
func (s *UserStore) Save(_ context.Context, user *goiam.User) (*goiam.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byEmail[user.Email]; ok && existingID != user.ID {
		return nil, fmt.Errorf("%w: email %s", goiam.ErrDuplicateKey, user.Email)
	}

	saved := *user
	if saved.ID == "" {
		s.nextID++
		saved.ID = strconv.Itoa(s.nextID)
	}
	s.byID[saved.ID] = saved
	s.byEmail[saved.Email] = saved.ID
	return &saved, nil
}

// FindByEmail implements [goiam.UserStore].
func (s *UserStore) FindByEmail(_ context.Context, email string) (*goiam.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, goiam.ErrUserNotFound
	}
	user := s.byID[id]
	return &user, nil
}

// FindByID implements [goiam.UserStore].
func (s *UserStore) FindByID(_ context.Context, id string) (*goiam.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, goiam.ErrUserNotFound
	}
	return &user, nil
}
