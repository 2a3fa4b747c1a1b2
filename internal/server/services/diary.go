// Package services wires the crypto, storage, cache and streak components
// into the operations the HTTP API and the admin CLI call.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/diaryvault/internal/cachex"
	"github.com/avolkov/diaryvault/internal/cryptox"
	"github.com/avolkov/diaryvault/internal/logging"
	"github.com/avolkov/diaryvault/internal/server/models"
	"github.com/avolkov/diaryvault/internal/server/repositories/entries"
	"github.com/avolkov/diaryvault/internal/streak"
)

const (
	entryCachePrefix = "diary:"
	entryCacheTTL    = 30 * 24 * time.Hour
	dateLayout       = "2006-01-02"
)

// cachedEntry is the per-entry cache payload. Content stays in its encrypted
// envelope form inside the cache: the cache backend is as untrusted as the
// database.
type cachedEntry struct {
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

// DiaryService owns the entry write and read paths.
type DiaryService struct {
	entries entries.Repository
	box     *cryptox.CipherBox
	streaks *streak.Engine
	cache   cachex.Cache
	log     logging.Logger
	now     func() time.Time
}

func NewDiaryService(repo entries.Repository, box *cryptox.CipherBox, streaks *streak.Engine, cache cachex.Cache, log logging.Logger) *DiaryService {
	return &DiaryService{
		entries: repo,
		box:     box,
		streaks: streaks,
		cache:   cache,
		log:     log,
		now:     time.Now,
	}
}

func entryCacheKey(userID, date string) string {
	return entryCachePrefix + userID + ":" + date
}

// Save encrypts plaintext and upserts the entry for (userID, date). The
// streak cache and the per-entry cache key are invalidated synchronously
// before returning, so the next read recomputes instead of serving stale
// state. Word count is taken from the plaintext; it is the one piece of
// metadata the dashboard needs that the envelope would hide.
func (s *DiaryService) Save(ctx context.Context, userID, date, plaintext string) (*models.Entry, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid entry date %q: %w", date, err)
	}

	blob, err := s.box.EncryptContent(ctx, userID, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt entry: %w", err)
	}

	entry := &models.Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		EntryDate: date,
		Content:   blob,
		WordCount: len(strings.Fields(plaintext)),
	}
	if err := s.entries.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}

	s.streaks.Invalidate(ctx, userID)
	if err := s.cache.Delete(ctx, entryCacheKey(userID, date)); err != nil {
		s.log.Warn(ctx, "entry cache invalidation failed", "user_id", userID, "date", date, "error", err)
	}

	return entry, nil
}

// Get returns the entry for (userID, date) with Content decrypted.
//
// The read path is classifier-gated: content that does not look like a
// cipher envelope is a legacy plaintext row and passes through untouched.
// Content that does look encrypted must decrypt cleanly; a failed tag check
// surfaces as common.ErrAuthenticationFailed, never as displayable content.
func (s *DiaryService) Get(ctx context.Context, userID, date string) (*models.Entry, error) {
	key := entryCacheKey(userID, date)

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn(ctx, "entry cache read failed", "user_id", userID, "date", date, "error", err)
	} else if ok {
		var ce cachedEntry
		if err := json.Unmarshal([]byte(raw), &ce); err == nil {
			return s.decode(ctx, userID, &models.Entry{
				UserID:    userID,
				EntryDate: date,
				Content:   ce.Content,
				WordCount: ce.WordCount,
			})
		}
	}

	entry, err := s.entries.Find(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	// Past entries are immutable; only those are worth caching.
	if s.isPastDate(date) {
		if raw, err := json.Marshal(cachedEntry{Content: entry.Content, WordCount: entry.WordCount}); err == nil {
			if err := s.cache.SetWithTTL(ctx, key, string(raw), entryCacheTTL); err != nil {
				s.log.Warn(ctx, "entry cache write failed", "user_id", userID, "date", date, "error", err)
			}
		}
	}

	return s.decode(ctx, userID, entry)
}

// ListDates returns the user's distinct entry dates, newest first.
func (s *DiaryService) ListDates(ctx context.Context, userID string) ([]string, error) {
	return s.entries.ListDates(ctx, userID)
}

// ClearCache removes every cached entry for the user.
func (s *DiaryService) ClearCache(ctx context.Context, userID string) error {
	return s.cache.DeleteByPrefix(ctx, entryCachePrefix+userID+":")
}

// decode routes stored content through the classifier and, when it looks
// like an envelope, through decryption.
func (s *DiaryService) decode(ctx context.Context, userID string, entry *models.Entry) (*models.Entry, error) {
	if !cryptox.LooksEncrypted(entry.Content) {
		return entry, nil
	}

	plaintext, err := s.box.DecryptContent(ctx, userID, entry.Content)
	if err != nil {
		return nil, fmt.Errorf("decrypt entry %s: %w", entry.EntryDate, err)
	}

	decoded := *entry
	decoded.Content = plaintext
	return &decoded, nil
}

func (s *DiaryService) isPastDate(date string) bool {
	d, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return false
	}
	y, m, day := s.now().UTC().Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return d.Before(today)
}
