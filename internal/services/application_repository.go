package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hellavor/careers-api/internal/models"
	"github.com/jmoiron/sqlx"
)

// ApplicationRepository is the durable store of job applications.
// Records are append-only: there is no update or delete.
type ApplicationRepository interface {
	// Insert stores a new record and returns it with its storage-assigned
	// ID and CreatedAt. The record is durable only when err is nil.
	Insert(ctx context.Context, app models.JobApplication) (models.JobApplication, error)
	// ListAll returns every record in storage order.
	ListAll(ctx context.Context) ([]models.JobApplication, error)
}

// SQLApplicationRepository stores applications in SQLite or PostgreSQL.
// Each insert is a single statement, so concurrent submissions never
// interleave partial writes.
type SQLApplicationRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLApplicationRepository creates a new SQLApplicationRepository.
func NewSQLApplicationRepository(db *sqlx.DB) *SQLApplicationRepository {
	return &SQLApplicationRepository{db: db, now: storageNow}
}

// storageNow is microsecond precision, the finest PostgreSQL keeps.
func storageNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Insert appends app to the job_applications table.
func (r *SQLApplicationRepository) Insert(ctx context.Context, app models.JobApplication) (models.JobApplication, error) {
	app.ID = uuid.New().String()
	app.CreatedAt = r.now()

	query := r.db.Rebind(`
		INSERT INTO job_applications (id, job_id, name, email, cover_letter, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, app.ID, app.JobID, app.Name, app.Email, app.CoverLetter, app.CreatedAt); err != nil {
		return models.JobApplication{}, unavailable("insert application", err)
	}
	return app, nil
}

// ListAll retrieves all applications in insertion order.
func (r *SQLApplicationRepository) ListAll(ctx context.Context) ([]models.JobApplication, error) {
	apps := []models.JobApplication{}
	err := r.db.SelectContext(ctx, &apps, `
		SELECT id, job_id, name, email, cover_letter, created_at
		FROM job_applications ORDER BY seq`)
	if err != nil {
		return nil, unavailable("list applications", err)
	}
	return apps, nil
}
