package ports

import (
	"context"

	"github.com/99minutos/session-auth/internal/core/domain"
)

type CredentialStore interface {
	Register(ctx context.Context, username, password string) (string, error)
	Authenticate(ctx context.Context, username, password string) (*domain.PublicUser, error)
}
