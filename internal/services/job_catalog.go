package services

import (
	"sort"

	"github.com/hellavor/careers-api/internal/models"
)

// JobCatalog is the read-only list of open positions. Application jobIds are
// not checked against it.
type JobCatalog struct {
	jobs []models.Job
	byID map[int64]models.Job
}

// NewJobCatalog creates a catalog ordered by job ID.
func NewJobCatalog(jobs []models.Job) *JobCatalog {
	c := &JobCatalog{
		jobs: append([]models.Job(nil), jobs...),
		byID: make(map[int64]models.Job, len(jobs)),
	}
	sort.Slice(c.jobs, func(i, j int) bool { return c.jobs[i].ID < c.jobs[j].ID })
	for _, j := range c.jobs {
		c.byID[j.ID] = j
	}
	return c
}

// List returns a copy of all jobs.
func (c *JobCatalog) List() []models.Job {
	return append([]models.Job{}, c.jobs...)
}

// Get returns a job by ID or ErrNotFound.
func (c *JobCatalog) Get(id int64) (models.Job, error) {
	j, ok := c.byID[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return j, nil
}
