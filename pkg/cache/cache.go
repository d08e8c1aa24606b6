// Package cache stores generated models so identical requests are served
// without regenerating.
//
// A model is fully determined by its parameters, seed and validation mode, so
// only requests with an explicit seed are cacheable. Backends:
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: hashed JSON files under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP API
//
// Keys are built by a [Keyer]; [ScopedKeyer] prefixes them for isolation.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiration.
type Cache interface {
	// Get returns the cached value and whether it was found.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is the lifetime of cached models.
const DefaultTTL = 7 * 24 * time.Hour

// Cacheable reports whether a model generated with seed may be cached.
// A zero seed asks for fresh randomness and is never served from cache.
func Cacheable(seed uint64) bool { return seed != 0 }

// Describe returns a short label for a key, for logs.
func Describe(key string) string {
	if len(key) > 16 {
		return fmt.Sprintf("%s…", key[:16])
	}
	return key
}

// NullCache never stores anything. Every Get is a miss.
type NullCache struct{}

// NewNullCache returns a cache that disables caching.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
