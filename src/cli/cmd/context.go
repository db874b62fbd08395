package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/perigee-labs/packship/src/config"
	"github.com/perigee-labs/packship/src/distro"
	"github.com/perigee-labs/packship/src/gitver"
	"github.com/perigee-labs/packship/src/output"
	"github.com/perigee-labs/packship/src/pipeline"
	"github.com/perigee-labs/packship/src/publish"
)

// resolveRunConfig assembles the immutable per-run configuration from
// the loaded config, the git checkout, and the trigger's channel and
// target selectors.
func resolveRunConfig(rootDir, channel string, targetPatterns []string, forceRepublish bool) (pipeline.RunConfig, error) {
	// A typoed channel would otherwise fall through to the zero profile
	// and publish with dev settings.
	if !cfg.KnownChannel(channel) {
		return pipeline.RunConfig{}, fmt.Errorf("unknown channel %q: not a configured channel or a built-in (dev, nightly, stable)", channel)
	}

	info, err := gitver.DetectVersion(rootDir)
	if err != nil {
		return pipeline.RunConfig{}, fmt.Errorf("detecting version: %w", err)
	}

	version, err := gitver.ChannelVersion(info, channel, time.Now().UTC())
	if err != nil {
		return pipeline.RunConfig{}, err
	}

	rc := pipeline.RunConfig{
		Channel:      channel,
		Version:      version,
		Republish:    cfg.Publish.Republish,
		Destinations: cfg.Destinations,
		Concurrency:  cfg.Publish.Concurrency,
		Verbose:      verbose,
	}

	profile, ok := cfg.Channels[channel]
	if ok {
		rc.Features = profile.Features
		if profile.Republish != nil {
			rc.Republish = *profile.Republish
		}
	}
	if forceRepublish {
		rc.Republish = true
	}

	for _, t := range cfg.Targets {
		if !config.MatchPatterns(profile.Targets, t.Name) {
			continue
		}
		if !config.MatchPatterns(targetPatterns, t.Name) {
			continue
		}
		rc.Targets = append(rc.Targets, t)
	}
	if len(rc.Targets) == 0 {
		return pipeline.RunConfig{}, fmt.Errorf("no targets match channel %q and selectors %v", channel, targetPatterns)
	}

	return rc, nil
}

// loadMatrix reads the distribution matrix. A missing file is fine —
// the metadata is optional — but a malformed one is an error.
func loadMatrix() (*distro.Matrix, error) {
	if cfg.DistrosFile == "" {
		return nil, nil
	}
	m, err := distro.Load(cfg.DistrosFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// contextKV builds the pipeline context block rows.
func contextKV(rc pipeline.RunConfig, runID string) []output.KV {
	return []output.KV{
		{Key: "channel", Value: rc.Channel},
		{Key: "version", Value: rc.Version},
		{Key: "run", Value: runID},
		{Key: "targets", Value: fmt.Sprintf("%d", len(rc.Targets))},
	}
}

// renderBuilds writes the per-target build outcomes.
func renderBuilds(w io.Writer, report *pipeline.Report, color bool) {
	sec := output.NewSection(w, "Build", 0, color)
	for _, b := range report.Builds {
		detail := fmt.Sprintf("%d artifact(s)", len(b.Artifacts))
		if b.Error != nil {
			detail = b.Error.Error()
		}
		output.RowStatus(sec, b.Target, detail, b.Status, color)
	}
	sec.Close()
}

// renderJobs writes the per-job publish outcomes.
func renderJobs(w io.Writer, results []publish.Result, color bool) {
	sec := output.NewSection(w, "Publish", 0, color)
	for _, r := range results {
		status := "success"
		detail := fmt.Sprintf("attempt %d", r.Attempts)
		switch r.Status {
		case "failed":
			status = "failed"
			detail = r.Error.Error()
		case "skipped":
			status = "skipped"
			detail = output.Dimmed("dry-run", color)
		}
		output.RowStatus(sec, r.Job.ID(), detail, status, color)
	}
	sec.Close()
}

// renderSummary writes the final run summary and returns an error when
// the run did not finish clean, so the process exits non-zero.
func renderSummary(w io.Writer, report *pipeline.Report, color bool) error {
	state := string(report.State)
	switch {
	case report.Succeeded():
		state = output.Succeeded(state, color)
	case report.State == pipeline.StateAnyFailed || report.State == pipeline.StatePublishFailed:
		state = output.Failed(state, color)
	}

	sec := output.NewSection(w, "Summary", 0, color)
	sec.Row("state: %s", output.Bold(state, color))

	buildStatus := "success"
	if report.AnyBuildFailed() {
		buildStatus = "failed"
	}
	output.SummaryRow(w, "builds", buildStatus,
		fmt.Sprintf("%d total, %d failed", len(report.Builds), len(report.FailedBuilds())), color)

	if report.State != pipeline.StateAnyFailed {
		jobStatus := "success"
		if report.AnyJobFailed() {
			jobStatus = "failed"
		}
		output.SummaryRow(w, "publish", jobStatus,
			fmt.Sprintf("%d job(s), %d failed", len(report.Jobs), len(report.FailedJobs())), color)
	}

	overall := "success"
	if !report.Succeeded() {
		overall = "failed"
	}
	output.SummaryTotal(w, report.Duration, overall, color)
	sec.Close()

	switch report.State {
	case pipeline.StateAnyFailed:
		if report.JobPlanErr != nil {
			return fmt.Errorf("run %s: %w", report.RunID, report.JobPlanErr)
		}
		var names []string
		for _, b := range report.FailedBuilds() {
			names = append(names, b.Target)
		}
		return fmt.Errorf("run %s: build failed for %v — nothing published", report.RunID, names)
	case pipeline.StatePublishFailed:
		var ids []string
		for _, j := range report.FailedJobs() {
			ids = append(ids, j.Job.ID())
		}
		return fmt.Errorf("run %s: %d publish job(s) failed: %v", report.RunID, len(ids), ids)
	default:
		return nil
	}
}
