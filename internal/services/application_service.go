package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hellavor/careers-api/internal/models"
	"github.com/rs/zerolog/log"
)

// emailPattern is the same local@domain.tld check the careers page runs.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ApplicationInput is an unvalidated submission from the careers page.
type ApplicationInput struct {
	JobID       int64
	Name        string
	Email       string
	CoverLetter string
}

// Validate checks every field server-side; client-side checks are never trusted.
func (in ApplicationInput) Validate() error {
	if in.JobID <= 0 {
		return &ValidationError{Field: "jobId", Reason: "is required"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return &ValidationError{Field: "email", Reason: "is required"}
	}
	if strings.TrimSpace(in.CoverLetter) == "" {
		return &ValidationError{Field: "coverLetter", Reason: "is required"}
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		return &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	return nil
}

// ApplicationNotifier is told about every stored application.
type ApplicationNotifier interface {
	ApplicationCreated(app models.JobApplication)
}

// ApplicationServiceProvider defines the interface for application intake and review.
type ApplicationServiceProvider interface {
	Submit(ctx context.Context, in ApplicationInput) (models.JobApplication, error)
	List(ctx context.Context) ([]models.JobApplication, error)
}

// ApplicationService validates submissions and hands them to the repository.
type ApplicationService struct {
	repo     ApplicationRepository
	notifier ApplicationNotifier
	timeout  time.Duration
}

// NewApplicationService creates a new ApplicationService. notifier may be nil.
func NewApplicationService(repo ApplicationRepository, notifier ApplicationNotifier, timeout time.Duration) *ApplicationService {
	return &ApplicationService{repo: repo, notifier: notifier, timeout: timeout}
}

// Submit validates and stores a new application. Fields are stored exactly as
// received; trimming is only used to decide emptiness.
func (s *ApplicationService) Submit(ctx context.Context, in ApplicationInput) (models.JobApplication, error) {
	if err := in.Validate(); err != nil {
		return models.JobApplication{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stored, err := s.repo.Insert(ctx, models.JobApplication{
		JobID:       in.JobID,
		Name:        in.Name,
		Email:       in.Email,
		CoverLetter: in.CoverLetter,
	})
	if err != nil {
		return models.JobApplication{}, fmt.Errorf("submit application for job %d: %w", in.JobID, err)
	}

	log.Info().Str("application_id", stored.ID).Int64("job_id", stored.JobID).Msg("Job application stored")
	if s.notifier != nil {
		s.notifier.ApplicationCreated(stored)
	}
	return stored, nil
}

// List returns every stored application.
func (s *ApplicationService) List(ctx context.Context) ([]models.JobApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	apps, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}
