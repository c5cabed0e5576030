package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore provides OS-native secure credential storage for token
// records, one keyring entry per principal. Uses macOS Keychain, Windows
// Credential Manager, or Linux Secret Service.
type KeyringStore struct {
	service string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore under the given service identifier.
func NewKeyringStore(service string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	return &KeyringStore{service: service}, nil
}

// Get returns the principal's record from the system keyring.
func (k *KeyringStore) Get(ctx context.Context, principalID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := keyring.Get(k.service, principalID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if record == "" {
		return nil, ErrNotFound
	}
	return []byte(record), nil
}

// Put persists the record to the system keyring, overwriting any existing
// entry for the principal.
func (k *KeyringStore) Put(ctx context.Context, principalID string, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return keyring.Set(k.service, principalID, string(record))
}

// Delete removes the principal's keyring entry. Absent entries are not an
// error.
func (k *KeyringStore) Delete(ctx context.Context, principalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := keyring.Delete(k.service, principalID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
