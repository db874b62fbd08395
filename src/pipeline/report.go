package pipeline

import (
	"time"

	"github.com/perigee-labs/packship/src/buildrun"
	"github.com/perigee-labs/packship/src/publish"
)

// Report accumulates every outcome of one run. It is returned up the
// call chain rather than mutated through shared state, and it is the
// single source for the end-of-run summary.
type Report struct {
	RunID    string
	State    State
	Channel  string
	Version  string
	Builds   []buildrun.Result
	Jobs     []publish.Result
	Duration time.Duration

	// JobPlanErr is set when job creation failed (bad destination
	// coordinates) before any job was attempted.
	JobPlanErr error
}

// AnyBuildFailed reports whether any target's build failed.
func (r *Report) AnyBuildFailed() bool {
	for _, b := range r.Builds {
		if b.Status != "success" {
			return true
		}
	}
	return false
}

// FailedBuilds returns the targets whose builds failed.
func (r *Report) FailedBuilds() []buildrun.Result {
	var failed []buildrun.Result
	for _, b := range r.Builds {
		if b.Status != "success" {
			failed = append(failed, b)
		}
	}
	return failed
}

// AnyJobFailed reports whether any publish job failed.
func (r *Report) AnyJobFailed() bool {
	for _, j := range r.Jobs {
		if !j.Succeeded() {
			return true
		}
	}
	return false
}

// FailedJobs returns the publish jobs that failed.
func (r *Report) FailedJobs() []publish.Result {
	var failed []publish.Result
	for _, j := range r.Jobs {
		if !j.Succeeded() {
			failed = append(failed, j)
		}
	}
	return failed
}

// Artifacts counts artifacts staged across all builds.
func (r *Report) Artifacts() int {
	n := 0
	for _, b := range r.Builds {
		n += len(b.Artifacts)
	}
	return n
}

// Succeeded reports whether the run reached the Done state.
func (r *Report) Succeeded() bool {
	return r.State == StateDone
}
