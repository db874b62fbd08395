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
	runChannel   string
	runTargets   []string
	runRepublish bool
	runDryRun    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build all targets and publish the release",
	Long: `Run the full pipeline: build every target concurrently, and if — and
only if — every build succeeded, publish each staged artifact to every
matching destination.

A build failure on any target stops the run before publishing; sibling
builds still run to completion so one invocation reports everything.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runChannel, "channel", "dev", "release channel (e.g., nightly, stable)")
	runCmd.Flags().StringSliceVar(&runTargets, "target", nil, "restrict to matching targets (repeatable)")
	runCmd.Flags().BoolVar(&runRepublish, "republish", false, "overwrite existing remote packages")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "build and plan jobs without uploading")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	// Ctrl-C stops dispatching new work; in-flight builds are killed
	// by their own CommandContext.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color := output.UseColor()
	w := os.Stdout

	rc, err := resolveRunConfig(rootDir, runChannel, runTargets, runRepublish)
	if err != nil {
		return err
	}

	matrix, err := loadMatrix()
	if err != nil {
		return err
	}

	st, err := store.NewRun(cfg.Build.StoreRoot)
	if err != nil {
		return err
	}

	pub := publish.NewPublisher(publish.NewHTTPEndpoint(cfg.Publish.Endpoint), st, cfg.Publish.Retry)
	pub.DryRun = runDryRun
	pub.Verbose = verbose

	runner, err := buildrun.Get(cfg.Build.Runner, cfg.Build)
	if err != nil {
		return err
	}

	pl := &pipeline.Pipeline{
		Runner:    runner,
		Store:     st,
		Publisher: pub,
		Matrix:    matrix,
	}

	output.ContextBlock(w, contextKV(rc, st.RunID()))

	// Collapsed: the build tool's own output dominates this section.
	output.SectionStartCollapsed(w, "ps_run", "Pipeline")
	report := pl.Run(ctx, rc)
	output.SectionEnd(w, "ps_run")

	renderBuilds(w, report, color)
	if report.State != pipeline.StateAnyFailed {
		renderJobs(w, report.Jobs, color)
	}
	return renderSummary(w, report, color)
}
