package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/session-auth/internal/core/domain"
)

// UserRepository stores users in Redis.
// Key format:
//
//	user:<id>           hash {username, password_hash, created_at}
//	username:<username> string holding the owning user id
//
// The username key is claimed with SETNX, which is what makes registration
// race-free.
type UserRepository struct {
	client *redis.Client
}

// NewUserRepository creates a UserRepository wrapping the given Redis client.
func NewUserRepository(client *redis.Client) *UserRepository {
	return &UserRepository{client: client}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	claimed, err := r.client.SetNX(ctx, usernameKey(user.Username), user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim username: %w", err)
	}
	if !claimed {
		return domain.ErrUserExists
	}

	err = r.client.HSet(ctx, userKey(user.ID),
		"username", user.Username,
		"password_hash", user.PasswordHash,
		"created_at", strconv.FormatInt(user.CreatedAt.Unix(), 10),
	).Err()
	if err != nil {
		// Release the claim so the username is not left pointing at nothing.
		if delErr := r.client.Del(context.WithoutCancel(ctx), usernameKey(user.Username)).Err(); delErr != nil {
			return fmt.Errorf("store user: %w (release username: %v)", err, delErr)
		}
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.client.Get(ctx, usernameKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	fields, err := r.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrUserNotFound
	}

	user := &domain.User{
		ID:           id,
		Username:     fields["username"],
		PasswordHash: fields["password_hash"],
	}
	if ts, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil && ts > 0 {
		user.CreatedAt = time.Unix(ts, 0).UTC()
	}
	return user, nil
}

func userKey(id string) string {
	return "user:" + id
}

func usernameKey(username string) string {
	return "username:" + username
}
