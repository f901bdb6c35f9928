package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hellavor/careers-api/internal/models"
	"github.com/hellavor/careers-api/internal/services"
)

// JobLister is satisfied by services.JobCatalog.
type JobLister interface {
	List() []models.Job
	Get(id int64) (models.Job, error)
}

// JobHandler serves the open positions shown on the careers page.
type JobHandler struct {
	catalog JobLister
}

func NewJobHandler(catalog JobLister) *JobHandler {
	return &JobHandler{catalog: catalog}
}

func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, false, "Invalid job id")
		return
	}

	job, err := h.catalog.Get(id)
	if errors.Is(err, services.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, false, "Job not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}
