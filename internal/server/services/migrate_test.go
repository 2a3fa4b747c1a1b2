package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/diaryvault/internal/cryptox"
	"github.com/avolkov/diaryvault/internal/server/models"
)

func TestEncryptLegacy(t *testing.T) {
	f := newDiaryFixture(t)
	ctx := context.Background()

	// One modern row, two plaintext rows from before encryption shipped.
	_, err := f.svc.Save(ctx, "user-a", testDate(1), "already encrypted on the write path")
	require.NoError(t, err)
	for _, offset := range []int{10, 20} {
		require.NoError(t, f.repo.Upsert(ctx, &models.Entry{
			UserID:    "user-a",
			EntryDate: testDate(offset),
			Content:   "old plaintext entry about nothing in particular",
			WordCount: 7,
		}))
	}

	report, err := f.svc.EncryptLegacy(ctx, "user-a")
	require.NoError(t, err)
	require.Equal(t, MigrationReport{Total: 3, Migrated: 2, Encrypted: 1}, report)

	// Every row is now an envelope and still decrypts to the original text.
	for _, offset := range []int{10, 20} {
		row, err := f.repo.Find(ctx, "user-a", testDate(offset))
		require.NoError(t, err)
		require.True(t, cryptox.LooksEncrypted(row.Content))

		got, err := f.svc.Get(ctx, "user-a", testDate(offset))
		require.NoError(t, err)
		require.Equal(t, "old plaintext entry about nothing in particular", got.Content)
	}

	// A second run finds nothing left to migrate.
	report, err = f.svc.EncryptLegacy(ctx, "user-a")
	require.NoError(t, err)
	require.Equal(t, MigrationReport{Total: 3, Migrated: 0, Encrypted: 3}, report)
}

func TestEncryptLegacy_DropsStaleCachedPlaintext(t *testing.T) {
	f := newDiaryFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.Upsert(ctx, &models.Entry{
		UserID:    "user-a",
		EntryDate: testDate(4),
		Content:   "plaintext that will get cached before the migration",
		WordCount: 8,
	}))

	// Prime the per-entry cache with the plaintext row.
	_, err := f.svc.Get(ctx, "user-a", testDate(4))
	require.NoError(t, err)

	_, err = f.svc.EncryptLegacy(ctx, "user-a")
	require.NoError(t, err)

	_, ok, _ := f.cache.Get(ctx, entryCacheKey("user-a", testDate(4)))
	require.False(t, ok, "migration must evict cached plaintext copies")
}
