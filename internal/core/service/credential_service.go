package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/core/ports"
)

// CredentialService implements registration and credential verification.
type CredentialService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
	newID  func() string
}

func NewCredentialService(repo ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *CredentialService {
	return &CredentialService{
		repo:   repo,
		hasher: hasher,
		log:    log,
		newID:  uuid.NewString,
	}
}

// Register validates the credentials, hashes the password and stores a new
// user. Username collisions are detected by the repository, not by a prior
// lookup, so concurrent registrations cannot both succeed.
func (s *CredentialService) Register(ctx context.Context, username, password string) (string, error) {
	if err := validateCredentials(username, password); err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return "", err
		}
		return "", fmt.Errorf("register: hash password: %w", err)
	}

	user := &domain.User{
		ID:           s.newID(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return "", domain.ErrUserExists
		}
		return "", fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("username", username).Msg("user registered")
	return user.ID, nil
}

// Authenticate checks a username/password pair and returns the public part of
// the matching record.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*domain.PublicUser, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.log.Debug().Str("username", username).Msg("password mismatch")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: verify password: %w", err)
	}

	public := user.Public()
	return &public, nil
}
