// Package cachex defines the optional cache capability the diary core
// depends on, with a Redis-backed implementation for deployments and an
// in-memory one for tests and cache-less setups.
//
// The cache is an availability optimization, never a source of truth:
// every caller treats a cache error as a miss and falls through to durable
// storage.
package cachex

import (
	"context"
	"time"
)

// Cache is the narrow key/value contract the core needs: get, set with TTL,
// delete by exact key, delete by key prefix (bulk clears).
type Cache interface {
	// Get returns the value for key. The second result is false on a miss.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetWithTTL stores value under key, expiring after ttl.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPrefix removes every key starting with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Noop is the Cache used when no cache backend is configured: every read
// misses, every write succeeds silently.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Get(context.Context, string) (string, bool, error)            { return "", false, nil }
func (*Noop) SetWithTTL(context.Context, string, string, time.Duration) error { return nil }
func (*Noop) Delete(context.Context, ...string) error                      { return nil }
func (*Noop) DeleteByPrefix(context.Context, string) error                 { return nil }
