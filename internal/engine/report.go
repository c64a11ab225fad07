package engine

import (
	"encoding/json"
	"errors"

	"github.com/aqasim81/stepmigrate/internal/executor"
)

// DirectoryStatus is the applied/total count for one step directory.
type DirectoryStatus struct {
	Name    string `json:"-"`
	Step    int    `json:"-"`
	Applied int    `json:"applied"`
	Total   int    `json:"total"`
}

// StatusReport summarizes the ledger against the step directories on disk.
type StatusReport struct {
	TotalApplied int
	Directories  []DirectoryStatus // ascending step order
}

// MarshalJSON renders directories keyed by name:
// {"total_applied":3,"directories":{"0_init":{"applied":2,"total":2}}}.
func (r StatusReport) MarshalJSON() ([]byte, error) {
	dirs := make(map[string]DirectoryStatus, len(r.Directories))
	for _, d := range r.Directories {
		dirs[d.Name] = d
	}

	return json.Marshal(struct {
		TotalApplied int                        `json:"total_applied"`
		Directories  map[string]DirectoryStatus `json:"directories"`
	}{
		TotalApplied: r.TotalApplied,
		Directories:  dirs,
	})
}

// Directory returns the status for the named directory.
func (r StatusReport) Directory(name string) (DirectoryStatus, bool) {
	for _, d := range r.Directories {
		if d.Name == name {
			return d, true
		}
	}

	return DirectoryStatus{}, false
}

// SkippedFile is a file left alone because the ledger already holds it under the same label.
type SkippedFile struct {
	File      string
	Directory string
}

// RunResult lists what an Init or SetStep run did with each file it visited.
type RunResult struct {
	Applied []executor.Outcome
	Skipped []SkippedFile
	Failed  []executor.Outcome
}

// Err joins the errors of every failed file, or returns nil when none failed.
func (r *RunResult) Err() error {
	if r == nil {
		return nil
	}

	errs := make([]error, 0, len(r.Failed))
	for _, o := range r.Failed {
		errs = append(errs, o.Err)
	}

	return errors.Join(errs...)
}

func (r *RunResult) add(o executor.Outcome) {
	if o.Succeeded() {
		r.Applied = append(r.Applied, o)
	} else {
		r.Failed = append(r.Failed, o)
	}
}
