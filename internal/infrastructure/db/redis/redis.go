package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second
	clientName     = "session-auth"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Store owns the client behind the redis user repository.
type Store struct {
	client *redis.Client
	users  *UserRepository
}

// Open creates a Redis client and validates connectivity with a ping.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Store{client: client, users: NewUserRepository(client)}, nil
}

func (s *Store) Users() *UserRepository {
	return s.users
}

// Ping backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close(context.Context) error {
	return s.client.Close()
}
