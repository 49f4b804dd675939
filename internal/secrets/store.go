// Package secrets wraps the key-value store that holds the token-verification
// secret. The store is consulted once at startup; if it is unreachable or the
// key is absent the server falls back to dev mode and keeps running.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// JWTSecretKey is the key holding the shared HMAC secret.
const JWTSecretKey = "jwt:secret"

// ErrNotFound is returned when a key has no value in the store.
var ErrNotFound = errors.New("secrets: key not found")

// Store handles all interaction with the Redis-backed secret store.
// A nil *Store is valid and behaves as an always-empty store (dev mode).
type Store struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

// NewStore connects to the store and verifies connectivity with a ping.
func NewStore(addr, password string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     4,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to secret store: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "secrets",
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     15 * time.Second,
	}

	return &Store{
		client: rdb,
		cb:     gobreaker.NewCircuitBreaker(st),
	}, nil
}

// Get fetches a value by key. Returns ErrNotFound when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrNotFound
	}

	res, err := s.cb.Execute(func() (interface{}, error) {
		val, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return val, err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("secret store get %q: %w", key, err)
	}
	return res.(string), nil
}

// Ping checks store connectivity. Used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Ping(ctx).Err()
	})
	return err
}

// Client returns the underlying Redis client, or nil in dev mode.
// The rate limiter uses it as a shared backing store when available.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Close gracefully shuts down the store connection.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
