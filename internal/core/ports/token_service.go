package ports

import "github.com/99minutos/session-auth/internal/core/domain"

// TokenService issues and verifies stateless session tokens.
type TokenService interface {
	Issue(user domain.PublicUser) (string, error)
	Verify(token string) (*domain.Claims, error)
}
