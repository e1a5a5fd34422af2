package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ieltsreader/internal/service"
	"ieltsreader/internal/validation"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondWithError writes {"error": userMsg}. A non-nil err is logged with
// logMsg, falling back to userMsg.
func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(context.Background(), level, logMsg, "status", status, "error", err)
	}

	respondJSON(w, status, errorBody{Error: userMsg})
}

// respondWithServiceError maps service sentinels to status codes
func respondWithServiceError(w http.ResponseWriter, err error) {
	var ve validation.ValidationError
	switch {
	case errors.As(err, &ve):
		respondWithError(w, http.StatusBadRequest, ve.Error(), "", nil)
	case errors.Is(err, service.ErrPassageNotFound):
		respondWithError(w, http.StatusNotFound, "Passage not found", "", nil)
	case errors.Is(err, service.ErrNoQuizItems):
		respondWithError(w, http.StatusConflict, "No quiz available for this passage", "", nil)
	case errors.Is(err, service.ErrQuizActive):
		respondWithError(w, http.StatusConflict, "A quiz is already in progress; reset it first", "", nil)
	case errors.Is(err, service.ErrNoActiveQuiz):
		respondWithError(w, http.StatusConflict, "No quiz in progress", "", nil)
	case errors.Is(err, service.ErrInvalidOption):
		respondWithError(w, http.StatusBadRequest, "Option index out of range", "", nil)
	case errors.Is(err, service.ErrPassageExists):
		respondWithError(w, http.StatusConflict, "Passage id is taken", "", nil)
	case errors.Is(err, service.ErrAssistDisabled):
		respondWithError(w, http.StatusServiceUnavailable, "Assistant is not configured", "", nil)
	case errors.Is(err, service.ErrAssistUnavailable):
		respondWithError(w, http.StatusBadGateway, "Assistant request failed", "assist backend error", err)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "unhandled service error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}
	return true
}
