package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/capitalize-ai/messaging-sync/internal/api"
	"github.com/capitalize-ai/messaging-sync/internal/service"
)

const maxRequestBody = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps session and backend errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidSelection),
		errors.Is(err, service.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotOwnMessage),
		errors.Is(err, service.ErrNotPeerMessage):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNoActiveConversation),
		errors.Is(err, service.ErrNotDirect),
		errors.Is(err, service.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotRunning):
		return http.StatusServiceUnavailable
	}

	var se *api.StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusNotFound, http.StatusForbidden:
			return se.StatusCode
		}
	}
	return http.StatusBadGateway
}

// writeServiceError writes err with the status statusFor picks. Backend
// failures are reported with a generic message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusBadGateway {
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, err.Error())
}
