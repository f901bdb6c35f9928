package handlers

import (
	"errors"
	"net/http"

	"github.com/hellavor/careers-api/internal/metrics"
	"github.com/hellavor/careers-api/internal/services"
)

// maxApplicationBody caps a submission, cover letter included.
const maxApplicationBody = 64 << 10

// ApplicationHandler handles job application intake and review.
type ApplicationHandler struct {
	service services.ApplicationServiceProvider
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(service services.ApplicationServiceProvider) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// ApplyPayload is the careers page form.
type ApplyPayload struct {
	JobID       int64  `json:"jobId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	CoverLetter string `json:"coverLetter"`
}

// Submit handles a public application submission.
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxApplicationBody)

	var payload ApplyPayload
	if err := decodeJSON(r, &payload); err != nil {
		metrics.RecordSubmission("invalid")
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	_, err := h.service.Submit(r.Context(), services.ApplicationInput{
		JobID:       payload.JobID,
		Name:        payload.Name,
		Email:       payload.Email,
		CoverLetter: payload.CoverLetter,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			metrics.RecordSubmission("invalid")
		} else {
			metrics.RecordSubmission("error")
		}
		writeServiceError(w, r, err, "Failed to submit application")
		return
	}

	metrics.RecordSubmission("stored")
	writeMessage(w, http.StatusOK, true, "Application submitted successfully!")
}

// List returns every stored application. The route is token-protected.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch applications")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}
