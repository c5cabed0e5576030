package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// FileStore keeps one record file per principal under a directory, with
// atomic writes and secure permissions. Writes use temp file + rename for
// crash safety.
type FileStore struct {
	dir string
}

// Compile-time check to ensure FileStore implements Store
var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at dir, creating the directory with
// 0700 permissions if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &FileStore{dir: dir}, nil
}

// path maps a principal id to a file name. Principal ids are external
// identifiers, so they are escaped before touching the filesystem.
func (f *FileStore) path(principalID string) string {
	return filepath.Join(f.dir, url.PathEscape(principalID)+".json")
}

// Get returns the stored record. Refuses files with permissions wider
// than 0600.
func (f *FileStore) Get(ctx context.Context, principalID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := f.path(principalID)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if info.Mode().Perm() != 0600 {
		return nil, fmt.Errorf("insecure permissions on %s: %04o (expected 0600)", path, info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

// Put atomically replaces the record using temp file + rename. Sets file
// permissions to 0600 (owner read/write only).
func (f *FileStore) Put(ctx context.Context, principalID string, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(f.dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if err := tempFile.Chmod(0600); err != nil {
		return err
	}
	if _, err := tempFile.Write(record); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tempName, f.path(principalID))
}

// Delete removes the principal's record file. Absent files are not an error.
func (f *FileStore) Delete(ctx context.Context, principalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.path(principalID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
