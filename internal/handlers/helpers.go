package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/widget"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
	case errors.Is(err, widget.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message is required", r))
	case errors.Is(err, widget.ErrSendInFlight):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "A message is already being sent", r))
	case errors.Is(err, widget.ErrClosed):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Chat widget is closed", r))
	case errors.Is(err, widget.ErrDisabled):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("UNAVAILABLE", "Chat widget is disabled", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
