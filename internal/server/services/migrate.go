package services

import (
	"context"
	"fmt"

	"github.com/avolkov/diaryvault/internal/cryptox"
)

// MigrationReport summarizes one bulk-encryption run.
type MigrationReport struct {
	Total     int
	Migrated  int
	Encrypted int // rows that were already envelopes and were left alone
}

// EncryptLegacy encrypts every plaintext row a user still has from before
// the encryption feature shipped. Rows the classifier already recognizes as
// envelopes are skipped, which makes the operation idempotent: running it
// twice migrates nothing the second time.
//
// Administrative path only; it holds no locks, so run it while the user is
// not actively writing.
func (s *DiaryService) EncryptLegacy(ctx context.Context, userID string) (MigrationReport, error) {
	rows, err := s.entries.ListAll(ctx, userID)
	if err != nil {
		return MigrationReport{}, fmt.Errorf("list entries: %w", err)
	}

	report := MigrationReport{Total: len(rows)}

	for _, row := range rows {
		if cryptox.LooksEncrypted(row.Content) {
			report.Encrypted++
			continue
		}

		blob, err := s.box.EncryptContent(ctx, userID, row.Content)
		if err != nil {
			return report, fmt.Errorf("encrypt entry %s: %w", row.EntryDate, err)
		}

		row.Content = blob
		if err := s.entries.Upsert(ctx, row); err != nil {
			return report, fmt.Errorf("update entry %s: %w", row.EntryDate, err)
		}
		report.Migrated++

		s.log.Info(ctx, "migrated legacy entry", "user_id", userID, "date", row.EntryDate)
	}

	// Cached copies of migrated rows still hold plaintext; drop them all.
	if report.Migrated > 0 {
		if err := s.ClearCache(ctx, userID); err != nil {
			s.log.Warn(ctx, "cache clear after migration failed", "user_id", userID, "error", err)
		}
	}

	return report, nil
}
