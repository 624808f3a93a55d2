package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"expense-api/internal/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, r *http.Request, code int, msg string, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), msg, "error", err, "request_id", RequestIDFromContext(r.Context()))
	}
	respondWithJSON(w, code, errorResponse{Error: msg})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	dat, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Could not marshal JSON for response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(dat); err != nil {
		slog.Error("Could not write response", "error", err)
	}
}

// respondWithServiceError maps the service error taxonomy onto status codes.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondWithError(w, r, http.StatusBadRequest, clientMessage(err, service.ErrValidation), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, r, http.StatusUnauthorized, "invalid username or password", nil)
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, r, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, r, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, r, http.StatusNotFound, "expense not found", nil)
	case errors.Is(err, service.ErrConfiguration):
		respondWithError(w, r, http.StatusInternalServerError, "server is not configured", err)
	default:
		respondWithError(w, r, http.StatusInternalServerError, "internal server error", err)
	}
}

// clientMessage strips the sentinel prefix so "validation failed: title is required"
// becomes "title is required".
func clientMessage(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func respondWithBadParam(w http.ResponseWriter, r *http.Request, err error) {
	respondWithError(w, r, http.StatusBadRequest, clientMessage(err, errBadParam), nil)
}
