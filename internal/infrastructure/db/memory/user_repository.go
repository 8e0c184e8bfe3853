// Package memory provides an in-process user store. It is used by tests and
// by STORE_BACKEND=memory for local runs; nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/99minutos/session-auth/internal/core/domain"
)

type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

// Create stores a copy of user. The existence check and the insert share one
// write lock.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return domain.ErrUserExists
	}

	clone := *user
	r.byID[clone.ID] = &clone
	r.byUsername[clone.Username] = clone.ID
	return nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}
