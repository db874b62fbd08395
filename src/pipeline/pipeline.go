// Package pipeline sequences the release run: build every target
// concurrently, gate on all builds succeeding, then publish every
// (artifact, destination) pair. The dependency graph is deliberately
// explicit — builds are the only predecessors of publishing, and
// publishing starts only when every one of them succeeded.
package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/perigee-labs/packship/src/buildrun"
	"github.com/perigee-labs/packship/src/config"
	"github.com/perigee-labs/packship/src/distro"
	"github.com/perigee-labs/packship/src/publish"
	"github.com/perigee-labs/packship/src/store"
)

// State is the orchestrator's position in the run lifecycle.
type State string

const (
	StatePending       State = "pending"
	StateBuildingAll   State = "building"
	StateAnyFailed     State = "any-failed"
	StatePublishing    State = "publishing"
	StateDone          State = "done"
	StatePublishFailed State = "publish-failed"
)

// RunConfig is the immutable per-run input. Components read it, nothing
// mutates it — run-wide status accumulates in the RunReport instead.
type RunConfig struct {
	Channel      string
	Version      string
	Features     []string
	Republish    bool
	Targets      []config.Target
	Destinations []config.Destination

	// Concurrency bounds simultaneous publish jobs.
	Concurrency int

	Verbose bool
}

// Pipeline wires the build runner, artifact store, and publisher.
type Pipeline struct {
	Runner    buildrun.Runner
	Store     store.Store
	Publisher *publish.Publisher

	// Matrix validates destination coordinates at job creation.
	// Nil skips validation (no metadata file configured).
	Matrix *distro.Matrix
}

// Run drives one release run to a terminal state. A single target's
// build failure never cancels sibling builds — every target runs to
// completion so one invocation yields full diagnostics — but any
// failure keeps publishing from ever starting.
func (p *Pipeline) Run(ctx context.Context, rc RunConfig) *Report {
	report := &Report{
		RunID:   p.Store.RunID(),
		State:   StatePending,
		Channel: rc.Channel,
		Version: rc.Version,
	}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	report.State = StateBuildingAll
	report.Builds = p.BuildAll(ctx, rc)

	if report.AnyBuildFailed() {
		report.State = StateAnyFailed
		return report
	}

	jobs, err := p.Jobs(rc, report.Builds)
	if err != nil {
		report.State = StateAnyFailed
		report.JobPlanErr = err
		return report
	}

	report.State = StatePublishing
	report.Jobs = p.PublishAll(ctx, rc, jobs)

	if report.AnyJobFailed() {
		report.State = StatePublishFailed
	} else {
		report.State = StateDone
	}
	return report
}

// BuildAll dispatches every target's build concurrently and waits for
// all of them to terminate, success or failure.
func (p *Pipeline) BuildAll(ctx context.Context, rc RunConfig) []buildrun.Result {
	results := make([]buildrun.Result, len(rc.Targets))

	var wg sync.WaitGroup
	for i, target := range rc.Targets {
		wg.Add(1)
		go func(i int, target config.Target) {
			defer wg.Done()

			features := rc.Features
			if len(target.Features) > 0 {
				features = target.Features
			}

			res, err := p.Runner.Build(ctx, buildrun.Request{
				Target:   target,
				Channel:  rc.Channel,
				Version:  rc.Version,
				Features: features,
				Verbose:  rc.Verbose,
			}, p.Store)

			if res == nil {
				res = &buildrun.Result{Target: target.Name, Status: "failed", Error: err}
			}
			results[i] = *res
		}(i, target)
	}
	wg.Wait()

	return results
}

// Jobs pairs every built artifact with every destination whose target
// and format filters match. Called only after the all-succeeded gate.
// Coordinates are checked against the distribution matrix so a config
// typo surfaces before any upload starts.
func (p *Pipeline) Jobs(rc RunConfig, builds []buildrun.Result) ([]publish.Job, error) {
	var jobs []publish.Job
	for _, b := range builds {
		for _, a := range b.Artifacts {
			for _, dest := range rc.Destinations {
				if !config.MatchPatterns(dest.Targets, a.Target) {
					continue
				}
				if !config.MatchPatterns(dest.Formats, a.Format) {
					continue
				}
				if err := p.Matrix.ValidateCoordinates(dest.Distro, dest.Release, a.Format); err != nil {
					return nil, err
				}
				jobs = append(jobs, publish.Job{
					Artifact:  a,
					Dest:      dest,
					Version:   rc.Version,
					Republish: rc.Republish,
				})
			}
		}
	}
	return jobs, nil
}

// PublishAll runs jobs concurrently, bounded by the configured limit.
// Job order is not significant — each targets an independent remote
// bucket. Cancellation stops dispatching; in-flight jobs finish.
func (p *Pipeline) PublishAll(ctx context.Context, rc RunConfig, jobs []publish.Job) []publish.Result {
	limit := int64(rc.Concurrency)
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)

	results := make([]publish.Result, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Run canceled — remaining jobs are never dispatched.
			results[i] = publish.Result{Job: job, Status: "failed", Error: err}
			continue
		}

		wg.Add(1)
		go func(i int, job publish.Job) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = p.Publisher.Publish(ctx, job)
		}(i, job)
	}
	wg.Wait()

	return results
}
