package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/despensa/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "despensa:pending:"

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps pending actions in Redis as JSON, so several server
// processes can share conversations.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return NewRedisStoreWithClient(client, opts.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func pendingKey(userID string) string {
	return keyPrefix + userID
}

// Load fetches and decodes the user's pending action.
func (s *RedisStore) Load(ctx context.Context, userID string) (*model.PendingAction, error) {
	data, err := s.client.Get(ctx, pendingKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending action for %s: %w", userID, err)
	}

	var pending model.PendingAction
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("failed to decode pending action for %s: %w", userID, err)
	}
	return &pending, nil
}

// Save stores the user's pending action with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, userID string, pending model.PendingAction) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode pending action: %w", err)
	}
	if err := s.client.Set(ctx, pendingKey(userID), data, max(s.ttl, 0)).Err(); err != nil {
		return fmt.Errorf("failed to save pending action for %s: %w", userID, err)
	}
	return nil
}

// Clear deletes the user's pending action.
func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, pendingKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear pending action for %s: %w", userID, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
