package salt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/diaryvault/internal/cachex"
	"github.com/avolkov/diaryvault/internal/common"
	"github.com/avolkov/diaryvault/internal/logging"
)

var hexSalt = regexp.MustCompile(`^[0-9a-f]{32}$`)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeRepo is an in-memory salts.Repository with switchable failures.
type fakeRepo struct {
	mu            sync.Mutex
	salts         map[string]string
	findErr       error
	createErr     error
	createCall    int
	missFirstFind bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{salts: make(map[string]string)}
}

func (r *fakeRepo) Find(_ context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return "", r.findErr
	}
	if r.missFirstFind {
		r.missFirstFind = false
		return "", common.ErrNotFound
	}
	s, ok := r.salts[userID]
	if !ok {
		return "", common.ErrNotFound
	}
	return s, nil
}

func (r *fakeRepo) Create(_ context.Context, userID, saltHex string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCall++
	if r.createErr != nil {
		return "", r.createErr
	}
	if existing, ok := r.salts[userID]; ok {
		return existing, nil
	}
	r.salts[userID] = saltHex
	return saltHex, nil
}

// failingCache errors on every operation.
type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, common.ErrCacheUnavailable
}
func (failingCache) SetWithTTL(context.Context, string, string, time.Duration) error {
	return common.ErrCacheUnavailable
}
func (failingCache) Delete(context.Context, ...string) error { return common.ErrCacheUnavailable }
func (failingCache) DeleteByPrefix(context.Context, string) error {
	return common.ErrCacheUnavailable
}

func TestResolve_GeneratesAndPersistsOnFirstUse(t *testing.T) {
	repo := newFakeRepo()
	cache := cachex.NewMemoryCache()
	store := NewStore(cache, repo, nil, testLogger())
	ctx := context.Background()

	salt, err := store.Resolve(ctx, "u1")
	require.NoError(t, err)
	require.Regexp(t, hexSalt, salt)

	persisted, err := repo.Find(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, salt, persisted, "generated salt must land in durable storage")

	cached, ok, _ := cache.Get(ctx, "enc_salt:u1")
	require.True(t, ok)
	require.Equal(t, salt, cached)
}

func TestResolve_StableAcrossCallsAndCacheLoss(t *testing.T) {
	repo := newFakeRepo()
	cache := cachex.NewMemoryCache()
	store := NewStore(cache, repo, nil, testLogger())
	ctx := context.Background()

	first, err := store.Resolve(ctx, "u1")
	require.NoError(t, err)

	second, err := store.Resolve(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Clearing only the cache tier must not change the salt: the durable
	// store recovers it.
	require.NoError(t, cache.Delete(ctx, "enc_salt:u1"))

	third, err := store.Resolve(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, first, third)
	require.Equal(t, 1, repo.createCall, "salt must be created exactly once")
}

func TestResolve_CacheFailureDegradesToDurable(t *testing.T) {
	repo := newFakeRepo()
	repo.salts["u1"] = "1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d"
	store := NewStore(failingCache{}, repo, nil, testLogger())

	salt, err := store.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d", salt)
}

func TestResolve_UnpersistedSaltIsFatal(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("db is down")
	store := NewStore(cachex.NewMemoryCache(), repo, nil, testLogger())

	_, err := store.Resolve(context.Background(), "u1")
	require.ErrorIs(t, err, common.ErrSaltNotPersisted)
}

func TestResolve_DurableReadFailurePropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errors.New("db is down")
	store := NewStore(cachex.NewMemoryCache(), repo, nil, testLogger())

	_, err := store.Resolve(context.Background(), "u1")
	require.Error(t, err)
	require.NotErrorIs(t, err, common.ErrNotFound)
}

func TestResolve_AdoptsRaceWinner(t *testing.T) {
	// Simulate losing the create race: this caller's Find misses, the winner
	// commits its salt in between, and the conflicting Create returns the
	// winner's value.
	repo := newFakeRepo()
	repo.salts["u1"] = "ffeeddccbbaa99887766554433221100"
	repo.missFirstFind = true
	store := NewStore(cachex.NewMemoryCache(), repo, nil, testLogger())

	salt, err := store.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "ffeeddccbbaa99887766554433221100", salt)
}

func openLocal(t *testing.T) *BoltStore {
	t.Helper()
	local, err := OpenBoltStore(filepath.Join(t.TempDir(), "salts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })
	return local
}

func TestResolve_MigratesLocalSaltOnce(t *testing.T) {
	repo := newFakeRepo()
	cache := cachex.NewMemoryCache()
	local := openLocal(t)
	require.NoError(t, local.Put("u1", "1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d"))

	store := NewStore(cache, repo, local, testLogger())
	ctx := context.Background()

	salt, err := store.Resolve(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d", salt, "local salt must be adopted")

	persisted, err := repo.Find(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, salt, persisted, "local salt must be copied to durable storage")
}

func TestResolve_LocalNeverOverwritesDurable(t *testing.T) {
	repo := newFakeRepo()
	repo.salts["u1"] = "ffeeddccbbaa99887766554433221100"
	local := openLocal(t)
	require.NoError(t, local.Put("u1", "1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d"))

	store := NewStore(cachex.NewMemoryCache(), repo, local, testLogger())

	salt, err := store.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "ffeeddccbbaa99887766554433221100", salt, "durable salt wins over local")
}

func TestInspect(t *testing.T) {
	repo := newFakeRepo()
	cache := cachex.NewMemoryCache()
	local := openLocal(t)
	store := NewStore(cache, repo, local, testLogger())
	ctx := context.Background()

	p, err := store.Inspect(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, Presence{}, p)

	_, err = store.Resolve(ctx, "u1")
	require.NoError(t, err)

	p, err = store.Inspect(ctx, "u1")
	require.NoError(t, err)
	require.True(t, p.Cache)
	require.True(t, p.Durable)
	require.False(t, p.Local)
}

func TestBoltStore_RoundTrip(t *testing.T) {
	local := openLocal(t)

	_, found, err := local.Get("u1")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, local.Put("u1", "aabb"))

	got, found, err := local.Get("u1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "aabb", got)
}
