// Package salt resolves and persists the per-user encryption salt across
// three tiers: fast cache, durable database (the system of record), and an
// optional legacy device-local store kept only as a migration source.
//
// A user has exactly one logical salt. It is created lazily on first use and
// never regenerated: losing it makes every envelope encrypted under it
// permanently undecryptable, which is why a freshly generated salt is never
// returned to a caller before it has landed in durable storage.
package salt

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/diaryvault/internal/cachex"
	"github.com/avolkov/diaryvault/internal/common"
	"github.com/avolkov/diaryvault/internal/cryptox"
	"github.com/avolkov/diaryvault/internal/logging"
	"github.com/avolkov/diaryvault/internal/server/repositories/salts"
)

const (
	cacheKeyPrefix = "enc_salt:"
	cacheTTL       = 7 * 24 * time.Hour
)

// LocalStore is the legacy device-local salt tier. When a local salt exists
// for a user with no durable row, it is migrated into the database exactly
// once; an existing durable value is never overwritten.
type LocalStore interface {
	Get(userID string) (string, bool, error)
	Put(userID, saltHex string) error
}

// Store resolves per-user salts. Safe for concurrent use; the first-use
// create race is resolved by the repository (insert loser adopts winner).
type Store struct {
	cache cachex.Cache
	repo  salts.Repository
	local LocalStore // nil when no device-local tier is configured
	log   logging.Logger
}

func NewStore(cache cachex.Cache, repo salts.Repository, local LocalStore, log logging.Logger) *Store {
	return &Store{cache: cache, repo: repo, local: local, log: log}
}

func cacheKey(userID string) string { return cacheKeyPrefix + userID }

// Resolve returns the hex salt for userID, consulting cache, then the
// database, then the local tier, and finally generating a new salt.
//
// Cache failures degrade silently to the durable path. Database failures
// propagate: on the generate path they surface as ErrSaltNotPersisted,
// because handing out a salt that "worked once" but was never committed
// produces envelopes nobody can ever open again.
func (s *Store) Resolve(ctx context.Context, userID string) (string, error) {
	key := cacheKey(userID)

	if salt, ok := s.cacheGet(ctx, key); ok {
		return salt, nil
	}

	salt, err := s.repo.Find(ctx, userID)
	if err == nil {
		s.cacheSet(ctx, key, salt)
		return salt, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return "", fmt.Errorf("find salt: %w", err)
	}

	if s.local != nil {
		localSalt, found, err := s.local.Get(userID)
		if err != nil {
			// A broken local tier cannot be skipped: generating a fresh salt
			// while a local one might exist would orphan old envelopes.
			return "", fmt.Errorf("read local salt: %w", err)
		}
		if found {
			persisted, err := s.repo.Create(ctx, userID, localSalt)
			if err != nil {
				return "", fmt.Errorf("%w: migrating local salt: %w", common.ErrSaltNotPersisted, err)
			}
			s.log.Info(ctx, "migrated device-local salt to database", "user_id", userID)
			s.cacheSet(ctx, key, persisted)
			return persisted, nil
		}
	}

	generated, err := generateSalt()
	if err != nil {
		return "", err
	}
	persisted, err := s.repo.Create(ctx, userID, generated)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrSaltNotPersisted, err)
	}
	if persisted != generated {
		s.log.Info(ctx, "lost salt creation race, adopted persisted value", "user_id", userID)
	}
	s.cacheSet(ctx, key, persisted)
	return persisted, nil
}

// Invalidate drops the cached salt for a user. The durable copy is untouched;
// the next Resolve repopulates the cache from it.
func (s *Store) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, cacheKey(userID)); err != nil {
		s.log.Warn(ctx, "salt cache delete failed", "user_id", userID, "error", err)
	}
}

// Presence reports which tiers currently hold a salt for the user.
// Administrative diagnostics only.
type Presence struct {
	Cache   bool
	Durable bool
	Local   bool
}

func (s *Store) Inspect(ctx context.Context, userID string) (Presence, error) {
	var p Presence

	_, p.Cache = s.cacheGet(ctx, cacheKey(userID))

	_, err := s.repo.Find(ctx, userID)
	switch {
	case err == nil:
		p.Durable = true
	case errors.Is(err, common.ErrNotFound):
	default:
		return p, fmt.Errorf("find salt: %w", err)
	}

	if s.local != nil {
		_, found, err := s.local.Get(userID)
		if err != nil {
			return p, fmt.Errorf("read local salt: %w", err)
		}
		p.Local = found
	}

	return p, nil
}

func (s *Store) cacheGet(ctx context.Context, key string) (string, bool) {
	salt, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "salt cache read failed", "key", key, "error", err)
		return "", false
	}
	return salt, ok
}

func (s *Store) cacheSet(ctx context.Context, key, salt string) {
	if err := s.cache.SetWithTTL(ctx, key, salt, cacheTTL); err != nil {
		s.log.Warn(ctx, "salt cache write failed", "key", key, "error", err)
	}
}

func generateSalt() (string, error) {
	raw := make([]byte, cryptox.SaltSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
