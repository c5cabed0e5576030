package tokenstore

import (
	"context"
	"fmt"
	"os"
)

// EnvStore provides read-only access to a token stored in an environment
// variable, serving the same value for every principal. Suitable for static
// token authentication but not OAuth (the lifecycle requires writable
// storage).
type EnvStore struct {
	envKey string
}

// Compile-time check to ensure EnvStore implements Store
var _ Store = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
// Returns error if the variable name is empty or not set in the environment.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	if _, exists := os.LookupEnv(envKey); !exists {
		return nil, fmt.Errorf("environment variable %s not set", envKey)
	}

	return &EnvStore{envKey: envKey}, nil
}

// Get returns the token from the environment variable. Returns ErrNotFound
// if the variable is empty.
func (e *EnvStore) Get(ctx context.Context, principalID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token := os.Getenv(e.envKey)
	if token == "" {
		return nil, ErrNotFound
	}
	return []byte(token), nil
}

// Put is not supported for environment variables (they are read-only).
func (e *EnvStore) Put(ctx context.Context, principalID string, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrReadOnly
}

// Delete is not supported for environment variables (they are read-only).
func (e *EnvStore) Delete(ctx context.Context, principalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrReadOnly
}
