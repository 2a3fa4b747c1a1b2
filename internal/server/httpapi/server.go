// Package httpapi exposes the diary, streak and PIN operations over a JSON
// HTTP API. Every route requires a bearer token; the user id always comes
// from the verified token, never from the request.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/avolkov/diaryvault/internal/logging"
	"github.com/avolkov/diaryvault/internal/server/services"
	"github.com/avolkov/diaryvault/internal/streak"
)

type Server struct {
	diary   *services.DiaryService
	pins    *services.PinService
	streaks *streak.Engine
	secret  []byte
	log     logging.Logger
}

func NewServer(diary *services.DiaryService, pins *services.PinService, streaks *streak.Engine, secret []byte, log logging.Logger) *Server {
	return &Server{diary: diary, pins: pins, streaks: streaks, secret: secret, log: log}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth)

	api.HandleFunc("/entries", s.handleListDates).Methods("GET")
	api.HandleFunc("/entries/{date}", s.handleGetEntry).Methods("GET")
	api.HandleFunc("/entries/{date}", s.handleSaveEntry).Methods("PUT")
	api.HandleFunc("/streak", s.handleStreak).Methods("GET")
	api.HandleFunc("/pin", s.handleSetPin).Methods("POST")
	api.HandleFunc("/pin", s.handleDisablePin).Methods("DELETE")
	api.HandleFunc("/pin/verify", s.handleVerifyPin).Methods("POST")
	api.HandleFunc("/cache", s.handleClearCache).Methods("DELETE")

	return router
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error(context.Background(), "response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
