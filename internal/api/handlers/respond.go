package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/hellavor/careers-api/internal/metrics"
	"github.com/hellavor/careers-api/internal/services"
)

// Envelope is the body shape of every non-listing response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, Envelope{Success: success, Message: message})
}

// writeServiceError maps a service failure to a status code. Only
// InvalidArgument carries its own message; anything else gets fallback so no
// storage detail reaches the caller.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, false, validationMessage(verr))
	case errors.Is(err, services.ErrInvalidArgument):
		writeMessage(w, http.StatusBadRequest, false, "Invalid request")
	case errors.Is(err, services.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, false, "Invalid username or password")
	case errors.Is(err, services.ErrUnavailable):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Store unavailable")
		metrics.RecordStoreError(routePattern(r))
		w.Header().Set("Retry-After", "5")
		writeMessage(w, http.StatusInternalServerError, false, fallback)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeMessage(w, http.StatusInternalServerError, false, fallback)
	}
}

func validationMessage(verr *services.ValidationError) string {
	switch {
	case verr.Reason == "is required":
		return "All fields are required"
	case verr.Field == "email":
		return "Please enter a valid email address."
	default:
		return "Invalid " + verr.Field
	}
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// trailing data.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}
