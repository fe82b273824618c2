// Package db defines the key-value/JSON storage contract used by the
// persistence gateway. Implemented by the rueidis-backed store in db/redis,
// which serves both the Redis and Valkey drivers.
package db

import (
	"context"
	"time"
)

// Store is the storage backend contract.
type Store interface {
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// WaitForReady polls Ping until the store responds or timeout expires.
	WaitForReady(ctx context.Context, timeout time.Duration) error
	// Close shuts down the client.
	Close()

	// Get retrieves a value by key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value at the given key.
	Set(ctx context.Context, key string, value []byte) error
	// SetWithTTL stores a value with an expiration.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes a key.
	Del(ctx context.Context, key string) error
	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// JSONSet stores a JSON document at the given key and path.
	JSONSet(ctx context.Context, key, path string, data []byte) error
	// JSONGet retrieves a JSON document by key and optional paths.
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}
