package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/diaryvault/internal/cachex"
	"github.com/avolkov/diaryvault/internal/common"
	"github.com/avolkov/diaryvault/internal/cryptox"
	"github.com/avolkov/diaryvault/internal/logging"
	"github.com/avolkov/diaryvault/internal/server/auth"
	"github.com/avolkov/diaryvault/internal/server/models"
	"github.com/avolkov/diaryvault/internal/server/services"
	"github.com/avolkov/diaryvault/internal/streak"
)

var testSecret = []byte("api-test-secret")

type memEntriesRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Entry
}

func newMemEntriesRepo() *memEntriesRepo {
	return &memEntriesRepo{rows: make(map[string]*models.Entry)}
}

func (r *memEntriesRepo) Upsert(_ context.Context, e *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.rows[e.UserID+"|"+e.EntryDate] = &cp
	return nil
}

func (r *memEntriesRepo) Find(_ context.Context, userID, date string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[userID+"|"+date]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memEntriesRepo) ListDates(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var dates []string
	for _, e := range r.rows {
		if e.UserID == userID {
			dates = append(dates, e.EntryDate)
		}
	}
	return dates, nil
}

func (r *memEntriesRepo) ListAll(_ context.Context, userID string) ([]*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Entry
	for _, e := range r.rows {
		if e.UserID == userID {
			cp := *e
			result = append(result, &cp)
		}
	}
	return result, nil
}

type memSettingsRepo struct {
	rows map[string]*models.UserSettings
}

func (r *memSettingsRepo) Find(_ context.Context, userID string) (*models.UserSettings, error) {
	st, ok := r.rows[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (r *memSettingsRepo) Upsert(_ context.Context, st *models.UserSettings) error {
	cp := *st
	r.rows[st.UserID] = &cp
	return nil
}

type fixedSalts map[string]string

func (s fixedSalts) Resolve(_ context.Context, userID string) (string, error) {
	return s[userID], nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cache := cachex.NewMemoryCache()
	entriesRepo := newMemEntriesRepo()

	box := cryptox.NewCipherBox(fixedSalts{
		"user-1": "0123456789abcdef0123456789abcdef",
	})
	streaks := streak.NewEngine(entriesRepo, cache, log)
	diary := services.NewDiaryService(entriesRepo, box, streaks, cache, log)
	pins := services.NewPinService(&memSettingsRepo{rows: make(map[string]*models.UserSettings)})

	srv := httptest.NewServer(NewServer(diary, pins, streaks, testSecret, log).Router())
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAPI_RejectsMissingToken(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, "GET", "/api/entries", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RejectsForgedToken(t *testing.T) {
	srv := newTestServer(t)

	forged, err := auth.GenerateToken("user-1", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	resp, _ := doRequest(t, srv, "GET", "/api/entries", forged, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_EntryRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := tokenFor(t, "user-1")
	date := time.Now().UTC().Format("2006-01-02")

	resp, raw := doRequest(t, srv, "PUT", "/api/entries/"+date, token,
		`{"content":"Wrote the first journal entry through the API today."}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = doRequest(t, srv, "GET", "/api/entries/"+date, token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry struct {
		EntryDate string `json:"entry_date"`
		Content   string `json:"content"`
		WordCount int    `json:"word_count"`
	}
	require.NoError(t, json.Unmarshal(raw, &entry))
	require.Equal(t, date, entry.EntryDate)
	require.Equal(t, "Wrote the first journal entry through the API today.", entry.Content)
	require.Equal(t, 9, entry.WordCount)
}

func TestAPI_GetEntry_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, "GET", "/api/entries/2026-01-01", tokenFor(t, "user-1"), "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_SaveEntry_BadDate(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, "PUT", "/api/entries/January-1st", tokenFor(t, "user-1"),
		`{"content":"x"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ListDates(t *testing.T) {
	srv := newTestServer(t)
	token := tokenFor(t, "user-1")

	resp, raw := doRequest(t, srv, "GET", "/api/entries", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"dates":[]}`, string(raw))

	date := time.Now().UTC().Format("2006-01-02")
	resp, _ = doRequest(t, srv, "PUT", "/api/entries/"+date, token, `{"content":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = doRequest(t, srv, "GET", "/api/entries", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Dates []string `json:"dates"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, []string{date}, out.Dates)
}

func TestAPI_Streak(t *testing.T) {
	srv := newTestServer(t)
	token := tokenFor(t, "user-1")

	date := time.Now().UTC().Format("2006-01-02")
	resp, _ := doRequest(t, srv, "PUT", "/api/entries/"+date, token, `{"content":"words"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doRequest(t, srv, "GET", "/api/streak", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap streak.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	require.Equal(t, 1, snap.CurrentStreak)
	require.True(t, snap.StreakActive)
	require.Equal(t, date, snap.LastEntryDate)
}

func TestAPI_PinLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := tokenFor(t, "user-1")

	resp, _ := doRequest(t, srv, "POST", "/api/pin", token, `{"pin":"4815"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doRequest(t, srv, "POST", "/api/pin/verify", token, `{"pin":"4815"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"valid":true}`, string(raw))

	resp, raw = doRequest(t, srv, "POST", "/api/pin/verify", token, `{"pin":"0000"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"valid":false}`, string(raw))

	resp, _ = doRequest(t, srv, "DELETE", "/api/pin", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = doRequest(t, srv, "POST", "/api/pin/verify", token, `{"pin":"4815"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"valid":false}`, string(raw))
}

func TestAPI_SetPin_Invalid(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, "POST", "/api/pin", tokenFor(t, "user-1"), `{"pin":"12ab"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ClearCache(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, "DELETE", "/api/cache", tokenFor(t, "user-1"), "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}
