package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// tokenKeyPrefix namespaces token records in Redis.
const tokenKeyPrefix = "linear:token:"

// RedisStore keeps token records in Redis, for server deployments where many
// principals authenticate against one shared store.
//
// Records are stored without TTL: the lifecycle manager owns expiry (access
// tokens are refreshed in place, and refresh tokens have no fixed lifetime).
type RedisStore struct {
	client *redis.Client
}

// Compile-time check to ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore backed by the given client.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &RedisStore{client: client}, nil
}

// Get returns the stored record for the principal.
func (r *RedisStore) Get(ctx context.Context, principalID string) ([]byte, error) {
	data, err := r.client.Get(ctx, tokenKeyPrefix+principalID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Put replaces the principal's record.
func (r *RedisStore) Put(ctx context.Context, principalID string, record []byte) error {
	if err := r.client.Set(ctx, tokenKeyPrefix+principalID, record, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the principal's record. Absent keys are not an error.
func (r *RedisStore) Delete(ctx context.Context, principalID string) error {
	if err := r.client.Del(ctx, tokenKeyPrefix+principalID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
