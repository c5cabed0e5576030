package tokenstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no record exists for the principal.
var ErrNotFound = errors.New("tokenstore: record not found")

// ErrReadOnly is returned by Put and Delete on backends that cannot be
// written (e.g. environment variables).
var ErrReadOnly = errors.New("tokenstore: storage is read-only")

// Store reads and writes token records to persistent storage, one record per
// principal with upsert semantics. Record bytes are opaque to the store.
type Store interface {
	// Get returns the stored record for the principal.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, principalID string) ([]byte, error)

	// Put persists the record, replacing any previous record for the
	// principal. Returns ErrReadOnly on read-only backends.
	Put(ctx context.Context, principalID string, record []byte) error

	// Delete removes the principal's record. Deleting an absent record is not
	// an error. Returns ErrReadOnly on read-only backends.
	Delete(ctx context.Context, principalID string) error
}
