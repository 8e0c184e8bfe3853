package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "session-auth"
)

type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Store owns the client behind the mongo user repository.
type Store struct {
	client *mongo.Client
	users  *UserRepository
}

// Open connects to MongoDB, pings the primary and makes sure the users
// collection carries its unique username index.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(openCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(openCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(openCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	users := NewUserRepository(client.Database(cfg.Database))
	if err := users.EnsureIndexes(openCtx); err != nil {
		_ = client.Disconnect(openCtx)
		return nil, err
	}

	return &Store{client: client, users: users}, nil
}

func (s *Store) Users() *UserRepository {
	return s.users
}

// Ping backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
