package ports

import (
	"context"

	"github.com/99minutos/session-auth/internal/core/domain"
)

// UserRepository persists user records.
//
// Create must enforce username uniqueness atomically and report a collision
// as domain.ErrUserExists. FindByUsername returns domain.ErrUserNotFound when
// no record matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}
