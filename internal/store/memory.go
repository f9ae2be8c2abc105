package store

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryBackend keeps values in process memory. Contents are lost on exit.
type MemoryBackend struct {
	cache *cache.Cache
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{cache: cache.New(cache.NoExpiration, 0)}
}

// Load returns a copy of the value stored under key
func (m *MemoryBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	val, found := m.cache.Get(key)
	if !found {
		return nil, ErrNotFound
	}

	stored := val.([]byte)
	out := make([]byte, len(stored))
	copy(out, stored)
	return out, nil
}

// Save stores a copy of value under key
func (m *MemoryBackend) Save(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.cache.Set(key, stored, cache.NoExpiration)
	return nil
}

// Delete removes key
func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.cache.Delete(key)
	return nil
}

// Close empties the backend
func (m *MemoryBackend) Close() error {
	m.cache.Flush()
	return nil
}
