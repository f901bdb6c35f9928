// Package seed loads the optional YAML file that provisions static
// administrators and the public job catalog.
package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hellavor/careers-api/internal/models"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of the seed file.
type File struct {
	Admins []models.AdminIdentity `yaml:"admins"`
	Jobs   []models.Job           `yaml:"jobs"`
}

// Load reads and validates a seed file. A missing file yields an empty File.
func Load(path string) (File, error) {
	var f File
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return f, err
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("seed file %s: %w", path, err)
	}
	return f, nil
}

// Validate rejects duplicate or incomplete entries.
func (f File) Validate() error {
	users := map[string]bool{}
	for i, a := range f.Admins {
		name := strings.TrimSpace(a.Username)
		if name == "" {
			return fmt.Errorf("admins[%d]: username is empty", i)
		}
		if !strings.HasPrefix(a.PasswordHash, "$2") {
			return fmt.Errorf("admins[%d] (%s): passwordHash must be a bcrypt hash", i, name)
		}
		if users[name] {
			return fmt.Errorf("admins[%d]: duplicate username %q", i, name)
		}
		users[name] = true
	}

	ids := map[int64]bool{}
	for i, j := range f.Jobs {
		if j.ID <= 0 {
			return fmt.Errorf("jobs[%d]: id must be positive", i)
		}
		if strings.TrimSpace(j.Title) == "" {
			return fmt.Errorf("jobs[%d]: title is empty", i)
		}
		if ids[j.ID] {
			return fmt.Errorf("jobs[%d]: duplicate id %d", i, j.ID)
		}
		ids[j.ID] = true
	}
	return nil
}
