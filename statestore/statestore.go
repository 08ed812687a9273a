// Package statestore persists the current behavioral state in Redis so a
// restarted kiosk re-enters the state it was showing, instead of snapping
// back to the idle loop mid-session.
package statestore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the Redis connection and key.
type Config struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	Key      string // redis key for the behavioral state
	TTL      time.Duration
}

// Store is a minimal Redis-backed state cell.
type Store struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// New creates a store and verifies connectivity.
func New(cfg Config) (*Store, error) {
	if cfg.Key == "" {
		cfg.Key = "kiosk:state"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &Store{client: client, key: cfg.Key, ttl: cfg.TTL}, nil
}

// Save persists the current behavioral state.
func (s *Store) Save(state string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.client.Set(ctx, s.key, state, s.ttl).Err()
}

// Load returns the persisted state, or "" when none is stored.
func (s *Store) Load() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	state, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return state, err
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
