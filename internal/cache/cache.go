// Package cache is the local fallback cache: durable string flags that keep
// the learning flow responsive when the remote progress store is slow or
// unreachable. It is never the source of truth.
package cache

import (
	"context"
	"fmt"

	"github.com/pywhiz/pywhiz/internal/storage/sqlite"
)

// Store is a last-write-wins key/value store with no expiry. Implementations
// are safe for concurrent use; processes sharing a backend may race on
// writes and the last one wins.
type Store interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key
	Set(ctx context.Context, key, value string) error

	// Remove deletes key; removing a missing key is not an error
	Remove(ctx context.Context, key string) error

	// Keys lists all stored keys
	Keys(ctx context.Context) ([]string, error)

	// Close releases the backend
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*sqlite.FlagStore)(nil)
)

// Options selects and configures a backend
type Options struct {
	Driver   string // sqlite, file, redis, memory
	Path     string
	RedisURL string
}

// Open returns the backend named by opts.Driver
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(opts.Path)
	case "redis":
		return NewRedisStore(ctx, opts.RedisURL)
	case "sqlite", "":
		store, err := sqlite.OpenFlagStore(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown cache driver %q", opts.Driver)
}
