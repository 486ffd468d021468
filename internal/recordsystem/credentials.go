package recordsystem

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// DefaultCredentialKey is where the basic-auth credential is stored
const DefaultCredentialKey = "sn_auth"

// CredentialStore holds the base64 basic-auth credential used when no
// bearer token is set
type CredentialStore interface {
	Credential(ctx context.Context) (string, error)
	SetCredential(ctx context.Context, value string) error
}

// StaticCredentialStore keeps the credential in memory
type StaticCredentialStore struct {
	mu    sync.RWMutex
	value string
}

// NewStaticCredentialStore creates a store seeded with value
func NewStaticCredentialStore(value string) *StaticCredentialStore {
	return &StaticCredentialStore{value: value}
}

func (s *StaticCredentialStore) Credential(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, nil
}

func (s *StaticCredentialStore) SetCredential(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	return nil
}

// RedisCredentialStore reads the credential from a fixed Redis key so that
// every portal instance shares it
type RedisCredentialStore struct {
	client *redis.Client
	key    string
}

// NewRedisCredentialStore creates a Redis-backed store. An empty key selects
// DefaultCredentialKey.
func NewRedisCredentialStore(client *redis.Client, key string) *RedisCredentialStore {
	if key == "" {
		key = DefaultCredentialKey
	}
	return &RedisCredentialStore{client: client, key: key}
}

func (s *RedisCredentialStore) Credential(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential %s: %w", s.key, err)
	}
	return val, nil
}

func (s *RedisCredentialStore) SetCredential(ctx context.Context, value string) error {
	if value == "" {
		if err := s.client.Del(ctx, s.key).Err(); err != nil {
			return fmt.Errorf("failed to clear credential %s: %w", s.key, err)
		}
		return nil
	}
	if err := s.client.Set(ctx, s.key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to store credential %s: %w", s.key, err)
	}
	return nil
}
