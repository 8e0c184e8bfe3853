package ports

import "context"

// PasswordHasher computes and verifies salted one-way password hashes.
// Compare returns domain.ErrInvalidCredentials on mismatch.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash, password string) error
}
