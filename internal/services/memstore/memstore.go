// Package memstore holds in-memory implementations used by tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hellavor/careers-api/internal/models"
)

// ApplicationRepository keeps applications in a slice guarded by a mutex.
type ApplicationRepository struct {
	mu   sync.RWMutex
	apps []models.JobApplication
}

// NewApplicationRepository creates an empty repository.
func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{}
}

// Insert appends a copy of app with a fresh ID.
func (r *ApplicationRepository) Insert(ctx context.Context, app models.JobApplication) (models.JobApplication, error) {
	if err := ctx.Err(); err != nil {
		return models.JobApplication{}, err
	}
	app.ID = uuid.New().String()
	app.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	r.apps = append(r.apps, app)
	r.mu.Unlock()
	return app, nil
}

// ListAll returns a snapshot of every record in insertion order.
func (r *ApplicationRepository) ListAll(ctx context.Context) ([]models.JobApplication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.JobApplication{}, r.apps...), nil
}

// Len returns the number of stored records.
func (r *ApplicationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.apps)
}
