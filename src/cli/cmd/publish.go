package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/perigee-labs/packship/src/buildrun"
	"github.com/perigee-labs/packship/src/output"
	"github.com/perigee-labs/packship/src/pipeline"
	"github.com/perigee-labs/packship/src/publish"
	"github.com/perigee-labs/packship/src/store"
)

var (
	pubRunID     string
	pubChannel   string
	pubRepublish bool
	pubDryRun    bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish staged artifacts from an earlier build run",
	Long: `Publish the artifacts staged by 'packship build' to every matching
destination. Each (artifact, destination) pair is an independent job:
one failure is recorded but does not block the remaining jobs.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&pubRunID, "run", "", "run ID from 'packship build' (required)")
	publishCmd.Flags().StringVar(&pubChannel, "channel", "dev", "release channel (e.g., nightly, stable)")
	publishCmd.Flags().BoolVar(&pubRepublish, "republish", false, "overwrite existing remote packages")
	publishCmd.Flags().BoolVar(&pubDryRun, "dry-run", false, "plan and print jobs without uploading")
	_ = publishCmd.MarkFlagRequired("run")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color := output.UseColor()
	w := os.Stdout

	rc, err := resolveRunConfig(rootDir, pubChannel, nil, pubRepublish)
	if err != nil {
		return err
	}

	matrix, err := loadMatrix()
	if err != nil {
		return err
	}

	st, err := store.OpenRun(cfg.Build.StoreRoot, pubRunID)
	if err != nil {
		return err
	}

	builds, err := stagedBuilds(st, rc)
	if err != nil {
		return err
	}

	pub := publish.NewPublisher(publish.NewHTTPEndpoint(cfg.Publish.Endpoint), st, cfg.Publish.Retry)
	pub.DryRun = pubDryRun
	pub.Verbose = verbose

	pl := &pipeline.Pipeline{Store: st, Publisher: pub, Matrix: matrix}

	jobs, err := pl.Jobs(rc, builds)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("run %s has no staged artifacts matching any destination", pubRunID)
	}

	output.ContextBlock(w, contextKV(rc, st.RunID()))

	output.SectionStart(w, "ps_publish", "Publish")
	results := pl.PublishAll(ctx, rc, jobs)
	output.SectionEnd(w, "ps_publish")

	renderJobs(w, results, color)

	var failed []string
	for _, r := range results {
		if !r.Succeeded() {
			failed = append(failed, r.Job.ID())
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("run %s: %d publish job(s) failed: %v", pubRunID, len(failed), failed)
	}
	return nil
}

// stagedBuilds reconstructs per-target artifact lists from the store so
// a standalone publish sees exactly what the build run staged.
func stagedBuilds(st store.Store, rc pipeline.RunConfig) ([]buildrun.Result, error) {
	var builds []buildrun.Result
	for _, t := range rc.Targets {
		handles, err := st.List(t.Name)
		if err != nil {
			return nil, fmt.Errorf("listing staged artifacts for %s: %w", t.Name, err)
		}

		res := buildrun.Result{Target: t.Name, Status: "success"}
		for _, h := range handles {
			format := buildrun.FormatOf(h.Filename)
			if format == "" {
				continue
			}
			res.Artifacts = append(res.Artifacts, buildrun.Artifact{
				Name:   h.Filename,
				Format: format,
				Target: t.Name,
				Handle: h,
			})
		}
		if len(res.Artifacts) > 0 {
			builds = append(builds, res)
		}
	}
	return builds, nil
}
