package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"storytime/internal/auth"
	"storytime/internal/logger"
	"storytime/internal/repository/db"
	"storytime/internal/service"
	"storytime/internal/service/stream"

	"github.com/sirupsen/logrus"
)

// maxBodyBytes caps JSON request bodies other than audio uploads
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// DeleteResponse confirms a deletion
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// sendError sends a standardized JSON error response
func sendError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := ErrorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil && status < http.StatusInternalServerError {
		errResp.Error = err.Error()
	}
	json.NewEncoder(w).Encode(errResp)
}

// sendJSON writes v with the given status
func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

// sendServiceError maps domain errors to HTTP statuses
func sendServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, db.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, db.ErrUsernameTaken):
		status, message = http.StatusConflict, "Username already exists"
	case errors.Is(err, service.ErrAdventureComplete):
		status, message = http.StatusConflict, "Adventure is already complete"
	case errors.Is(err, service.ErrNoImagePrompt):
		status, message = http.StatusConflict, "Story has no image prompt"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrInvalidAudio):
		status, message = http.StatusBadRequest, "Invalid audio"
	case errors.Is(err, service.ErrInvalidModel):
		status, message = http.StatusBadRequest, "Model is not available"
	}

	entry := logger.Log.WithError(err).WithFields(logrus.Fields{"path": r.URL.Path, "status": status})
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Debug(message)
	}

	sendError(w, status, message, err)
}

// decodeJSON reads a JSON body of at most limit bytes into v
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// currentUser returns the caller set by AuthMiddleware
func currentUser(r *http.Request) auth.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}

// streamEvents writes events as server-sent events until the channel closes
func streamEvents(w http.ResponseWriter, flusher http.Flusher, events <-chan stream.Event) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			logger.Log.WithError(err).WithField("type", ev.Type).Error("Failed to encode event")
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
		logger.Log.WithField("type", ev.Type).Trace("Sent event")
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}
