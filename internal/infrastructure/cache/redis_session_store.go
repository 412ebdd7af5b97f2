package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/erp/settlement/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultSessionKeyPrefix = "settlement:session:"

// RedisSessionStore implements allocation.SessionStore using Redis.
// Sessions are stored as JSON with the idle TTL refreshed on every Put.
type RedisSessionStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSessionStore connects to Redis and verifies the connection
func NewRedisSessionStore(cfg config.RedisConfig, keyPrefix string) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSessionStoreWithClient(client, keyPrefix), nil
}

// NewRedisSessionStoreWithClient creates a store with an existing Redis client
func NewRedisSessionStoreWithClient(client *redis.Client, keyPrefix string) *RedisSessionStore {
	if keyPrefix == "" {
		keyPrefix = defaultSessionKeyPrefix
	}
	return &RedisSessionStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get loads a session, returning allocation.ErrSessionNotFound for missing or expired keys
func (s *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*allocation.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, allocation.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get allocation session: %w", err)
	}
	return decodeSession(data)
}

// Put replaces the stored session and resets its TTL
func (s *RedisSessionStore) Put(ctx context.Context, session allocation.Session, ttl time.Duration) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store allocation session: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete allocation session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

func (s *RedisSessionStore) key(id uuid.UUID) string {
	return s.keyPrefix + id.String()
}

func encodeSession(session allocation.Session) ([]byte, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode allocation session: %w", err)
	}
	return data, nil
}

func decodeSession(data []byte) (*allocation.Session, error) {
	var session allocation.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode allocation session: %w", err)
	}
	return &session, nil
}

// Ensure RedisSessionStore implements SessionStore
var _ SessionStore = (*RedisSessionStore)(nil)
