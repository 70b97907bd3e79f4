package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bookable/backend/internal/domain"
	"bookable/backend/internal/service/scheduling"
	"bookable/backend/internal/store"
)

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", slog.Any("err", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Message: message})
}

// handleServiceError maps service and store errors onto status codes.
// Validation failures are the caller's fault and carry their message
// through; anything unexpected is logged and hidden behind a 500.
func (s *Server) handleServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *scheduling.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("invalid request", slog.Any("err", err))
		s.writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	var irErr *domain.InvalidRequestError
	if errors.As(err, &irErr) {
		log.Warn("invalid request", slog.Any("err", err))
		s.writeError(w, http.StatusBadRequest, irErr.Error())
		return
	}
	switch {
	case errors.Is(err, store.ErrConflict):
		log.Info("slot conflict")
		s.writeError(w, http.StatusConflict, "That time is no longer available. Pick a different slot.")
	case errors.Is(err, store.ErrIdempotencyConflict):
		log.Info("idempotency conflict")
		s.writeError(w, http.StatusConflict, "This request key was already used for a different booking. Try again.")
	case errors.Is(err, store.ErrNotFound):
		log.Info("not found")
		s.writeError(w, http.StatusNotFound, "not found")
	default:
		log.Error("request failed", slog.Any("err", err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
