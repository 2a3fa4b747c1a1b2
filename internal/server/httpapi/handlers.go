package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/avolkov/diaryvault/internal/common"
	"github.com/avolkov/diaryvault/internal/server/services"
)

const maxEntryBody = 1 << 20 // 1 MiB of journal text is plenty

type entryResponse struct {
	EntryDate string `json:"entry_date"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

type saveEntryRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleSaveEntry(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	date := mux.Vars(r)["date"]

	var req saveEntryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEntryBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := s.diary.Save(r.Context(), userID, date, req.Content)
	if err != nil {
		s.log.Error(r.Context(), "entry save failed", "user_id", userID, "date", date, "error", err)
		s.writeError(w, http.StatusBadRequest, "could not save entry")
		return
	}

	s.writeJSON(w, http.StatusOK, entryResponse{
		EntryDate: entry.EntryDate,
		Content:   req.Content,
		WordCount: entry.WordCount,
	})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	date := mux.Vars(r)["date"]

	entry, err := s.diary.Get(r.Context(), userID, date)
	switch {
	case errors.Is(err, common.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "no entry for this date")
		return
	case errors.Is(err, common.ErrAuthenticationFailed):
		s.log.Error(r.Context(), "entry failed authenticated decryption", "user_id", userID, "date", date)
		s.writeError(w, http.StatusUnprocessableEntity, "entry could not be decrypted")
		return
	case err != nil:
		s.log.Error(r.Context(), "entry read failed", "user_id", userID, "date", date, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not load entry")
		return
	}

	s.writeJSON(w, http.StatusOK, entryResponse{
		EntryDate: entry.EntryDate,
		Content:   entry.Content,
		WordCount: entry.WordCount,
	})
}

func (s *Server) handleListDates(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	dates, err := s.diary.ListDates(r.Context(), userID)
	if err != nil {
		s.log.Error(r.Context(), "date listing failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not list entries")
		return
	}
	if dates == nil {
		dates = []string{}
	}

	s.writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	snap, err := s.streaks.Snapshot(r.Context(), userID)
	if err != nil {
		s.log.Error(r.Context(), "streak computation failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not compute streak")
		return
	}

	s.writeJSON(w, http.StatusOK, snap)
}

type pinRequest struct {
	PIN string `json:"pin"`
}

func (s *Server) handleSetPin(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.pins.Set(r.Context(), userID, req.PIN); err != nil {
		if errors.Is(err, services.ErrInvalidPIN) {
			s.writeError(w, http.StatusBadRequest, services.ErrInvalidPIN.Error())
			return
		}
		s.log.Error(r.Context(), "pin update failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not set pin")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"pin_enabled": true})
}

func (s *Server) handleVerifyPin(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := s.pins.Verify(r.Context(), userID, req.PIN)
	if err != nil {
		s.log.Error(r.Context(), "pin verification failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not verify pin")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}

func (s *Server) handleDisablePin(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	if err := s.pins.Disable(r.Context(), userID); err != nil {
		s.log.Error(r.Context(), "pin disable failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not disable pin")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"pin_enabled": false})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	if err := s.diary.ClearCache(r.Context(), userID); err != nil {
		s.log.Error(r.Context(), "cache clear failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not clear cache")
		return
	}
	s.streaks.Invalidate(r.Context(), userID)

	w.WriteHeader(http.StatusNoContent)
}
