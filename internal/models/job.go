package models

// Job is an open position shown on the careers page.
type Job struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Location    string `json:"location" yaml:"location"`
	Type        string `json:"type" yaml:"type"` // e.g. "Full-time", "Contract"
}
