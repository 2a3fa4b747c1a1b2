// Package streak computes writing-streak statistics from the set of dates a
// user has written on, with a TTL cache invalidated on every save.
package streak

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/avolkov/diaryvault/internal/cachex"
	"github.com/avolkov/diaryvault/internal/logging"
)

const (
	cacheKeyPrefix = "user_streak:"
	cacheTTL       = 4 * time.Hour
	dateLayout     = "2006-01-02"
)

// Snapshot is the derived streak state for one user.
// LongestStreak >= CurrentStreak always; TotalEntries counts distinct
// calendar dates, so duplicate same-day saves never inflate it.
type Snapshot struct {
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	TotalEntries  int    `json:"total_entries"`
	LastEntryDate string `json:"last_entry_date,omitempty"`
	StreakActive  bool   `json:"streak_active"`
}

// DateSource yields the distinct entry dates for a user, formatted
// YYYY-MM-DD. Satisfied by the entries repository.
type DateSource interface {
	ListDates(ctx context.Context, userID string) ([]string, error)
}

// Engine computes and caches streak snapshots.
type Engine struct {
	dates DateSource
	cache cachex.Cache
	log   logging.Logger
	now   func() time.Time
}

func NewEngine(dates DateSource, cache cachex.Cache, log logging.Logger) *Engine {
	return &Engine{dates: dates, cache: cache, log: log, now: time.Now}
}

func cacheKey(userID string) string { return cacheKeyPrefix + userID }

// Snapshot returns the user's streak state, from cache when possible.
//
// A store fetch failure propagates: the caller must be able to tell "no
// entries" from "could not determine". Cache failures only cost the
// recomputation.
func (e *Engine) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	key := cacheKey(userID)

	if raw, ok, err := e.cache.Get(ctx, key); err != nil {
		e.log.Warn(ctx, "streak cache read failed", "user_id", userID, "error", err)
	} else if ok {
		var snap Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err == nil {
			return snap, nil
		}
		e.log.Warn(ctx, "streak cache held malformed snapshot, recomputing", "user_id", userID)
	}

	dates, err := e.dates.ListDates(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list entry dates: %w", err)
	}

	snap, err := compute(dates, e.today())
	if err != nil {
		return Snapshot{}, err
	}

	if raw, err := json.Marshal(snap); err == nil {
		if err := e.cache.SetWithTTL(ctx, key, string(raw), cacheTTL); err != nil {
			e.log.Warn(ctx, "streak cache write failed", "user_id", userID, "error", err)
		}
	}

	return snap, nil
}

// Invalidate drops the cached snapshot so the next read recomputes. The
// entry write path calls this synchronously before returning; a cache
// failure here is logged and swallowed like every other cache failure.
func (e *Engine) Invalidate(ctx context.Context, userID string) {
	if err := e.cache.Delete(ctx, cacheKey(userID)); err != nil {
		e.log.Warn(ctx, "streak cache invalidation failed", "user_id", userID, "error", err)
	}
}

func (e *Engine) today() time.Time {
	y, m, d := e.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// compute derives the snapshot from raw date strings. Dates are
// deduplicated and sorted newest-first before the gap walk, so a zero-day
// gap cannot occur below; the walk ignores one rather than letting it
// inflate or terminate a run.
func compute(rawDates []string, today time.Time) (Snapshot, error) {
	uniq := make(map[time.Time]struct{}, len(rawDates))
	for _, raw := range rawDates {
		d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return Snapshot{}, fmt.Errorf("parse entry date %q: %w", raw, err)
		}
		uniq[d] = struct{}{}
	}

	if len(uniq) == 0 {
		return Snapshot{}, nil
	}

	dates := make([]time.Time, 0, len(uniq))
	for d := range uniq {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	snap := Snapshot{
		TotalEntries:  len(dates),
		LastEntryDate: dates[0].Format(dateLayout),
	}

	gap0 := daysBetween(dates[0], today)
	snap.StreakActive = gap0 <= 1

	if snap.StreakActive {
		snap.CurrentStreak = 1
		for i := 1; i < len(dates); i++ {
			gap := daysBetween(dates[i], dates[i-1])
			if gap == 0 {
				// Unreachable after dedup; ignored rather than counted.
				continue
			}
			if gap != 1 {
				break
			}
			snap.CurrentStreak++
		}
	}

	run := 1
	snap.LongestStreak = 1
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i], dates[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > snap.LongestStreak {
			snap.LongestStreak = run
		}
	}

	// Guards the single-entry edge case; by construction the scan above
	// already covers everything else.
	if snap.CurrentStreak > snap.LongestStreak {
		snap.LongestStreak = snap.CurrentStreak
	}

	return snap, nil
}

// daysBetween returns the whole-day difference later-earlier for two
// midnight-normalized dates.
func daysBetween(earlier, later time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}
