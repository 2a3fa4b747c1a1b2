// Package common defines shared constants and sentinel errors used across
// the diaryvault components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrSaltNotPersisted means a freshly generated encryption salt could not
	// be written to durable storage. The salt must not be used: an encrypt
	// performed with an unpersisted salt produces a blob that can never be
	// decrypted again.
	ErrSaltNotPersisted = errors.New("encryption salt not persisted")

	// ErrAuthenticationFailed means the AES-GCM tag did not verify on
	// decryption: corrupted data, tampering, or key/salt mismatch.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrCacheUnavailable marks cache read/write failures. It is non-fatal
	// everywhere: callers log it and fall through to durable storage.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
