// Package publish pushes staged artifacts to the remote package
// distribution service. Each job pairs one artifact with one destination
// bucket and is an independent failure domain: a failed job never blocks
// or masks its siblings.
package publish

import (
	"fmt"
	"time"

	"github.com/perigee-labs/packship/src/buildrun"
	"github.com/perigee-labs/packship/src/config"
)

// Job is the unit of publish work: one artifact, one destination.
// Jobs are created only for artifacts whose build succeeded, and each
// is consumed exactly once.
type Job struct {
	Artifact buildrun.Artifact
	Dest     config.Destination

	// Version is the package version registered at the endpoint.
	Version string

	// Republish overwrites an existing remote package with the same
	// identity instead of erroring on "already exists". Resubmitting a
	// job with Republish=true is idempotent.
	Republish bool
}

// ID is the job's remote identity. Two jobs with equal IDs address the
// same remote package slot.
func (j Job) ID() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s",
		j.Dest.Owner, j.Dest.Repository, j.Artifact.Format,
		j.Dest.Distro, j.Dest.Release, j.Artifact.Name)
}

// Result is the terminal outcome of one job.
type Result struct {
	Job      Job
	Status   string // "published", "failed", "skipped" (dry-run)
	Attempts int
	Duration time.Duration
	Error    error
}

// Succeeded reports whether the job reached a non-failed terminal state.
func (r Result) Succeeded() bool {
	return r.Status != "failed"
}
