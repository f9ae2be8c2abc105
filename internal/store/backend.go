package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key or a record does not exist
var ErrNotFound = errors.New("not found")

// Backend persists opaque values under string keys
type Backend interface {
	// Load returns the value stored under key, or ErrNotFound
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores value under key, replacing any previous value
	Save(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources
	Close() error
}
