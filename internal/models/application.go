package models

import "time"

// JobApplication is a single submission from the careers page.
// Records are immutable once stored.
type JobApplication struct {
	ID          string    `json:"id" db:"id"`
	JobID       int64     `json:"jobId" db:"job_id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	CoverLetter string    `json:"coverLetter" db:"cover_letter"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
