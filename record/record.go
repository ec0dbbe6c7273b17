// Package record keeps a journal of the parameters used by each iteration of
// a multi-scale run.
package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is the journal of one multi-scale run.
type Run struct {
	Started  time.Time `yaml:"started"`
	Finished time.Time `yaml:"finished,omitempty"`
	ID       string    `yaml:"id"`
	Error    string    `yaml:"error,omitempty"`
	Steps    []Step    `yaml:"steps"`
	Planned  int       `yaml:"planned"`
}

// Step records a single iteration.
type Step struct {
	Params     map[string]any `yaml:"params,omitempty"`
	Input      string         `yaml:"input"`
	Output     string         `yaml:"output"`
	Error      string         `yaml:"error,omitempty"`
	Index      int            `yaml:"index"`
	DurationMs int64          `yaml:"duration_ms"`
}

// NewRun starts a journal for a run of planned iterations.
func NewRun(planned int) *Run {
	return &Run{
		ID:      uuid.NewString(),
		Started: time.Now().UTC(),
		Planned: planned,
	}
}

// Add appends an iteration to the journal.
func (r *Run) Add(step Step) {
	r.Steps = append(r.Steps, step)
}

// Finish marks the run as ended, with err if it aborted.
func (r *Run) Finish(err error) {
	r.Finished = time.Now().UTC()
	if err != nil {
		r.Error = err.Error()
	}
}

// Completed reports whether every planned iteration ran without error.
func (r *Run) Completed() bool {
	if r.Error != "" || len(r.Steps) != r.Planned {
		return false
	}
	for _, s := range r.Steps {
		if s.Error != "" {
			return false
		}
	}
	return true
}

// Validate checks the journal's internal consistency.
func (r *Run) Validate() error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", r.ID, err)
	}
	for i, s := range r.Steps {
		if s.Index != i {
			return fmt.Errorf("step %d recorded with index %d", i, s.Index)
		}
	}
	if len(r.Steps) > r.Planned {
		return fmt.Errorf("%d steps recorded for %d planned", len(r.Steps), r.Planned)
	}
	return nil
}
