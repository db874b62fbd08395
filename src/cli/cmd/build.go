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
	"github.com/perigee-labs/packship/src/store"
)

var (
	buildChannel string
	buildTargets []string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build all targets and stage artifacts",
	Long: `Build every configured target concurrently and stage the produced
packages in a fresh run namespace. Prints the run ID for a later
standalone 'packship publish --run <id>'.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildChannel, "channel", "dev", "release channel (e.g., nightly, stable)")
	buildCmd.Flags().StringSliceVar(&buildTargets, "target", nil, "restrict to matching targets (repeatable)")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color := output.UseColor()
	w := os.Stdout

	rc, err := resolveRunConfig(rootDir, buildChannel, buildTargets, false)
	if err != nil {
		return err
	}

	st, err := store.NewRun(cfg.Build.StoreRoot)
	if err != nil {
		return err
	}

	runner, err := buildrun.Get(cfg.Build.Runner, cfg.Build)
	if err != nil {
		return err
	}

	pl := &pipeline.Pipeline{
		Runner: runner,
		Store:  st,
	}

	output.ContextBlock(w, contextKV(rc, st.RunID()))

	// Collapsed: the build tool's own output dominates this section.
	output.SectionStartCollapsed(w, "ps_build", "Build")
	report := &pipeline.Report{
		RunID:   st.RunID(),
		Channel: rc.Channel,
		Version: rc.Version,
	}
	report.Builds = pl.BuildAll(ctx, rc)
	output.SectionEnd(w, "ps_build")

	renderBuilds(w, report, color)

	if report.AnyBuildFailed() {
		var names []string
		for _, b := range report.FailedBuilds() {
			names = append(names, b.Target)
		}
		return fmt.Errorf("run %s: build failed for %v", st.RunID(), names)
	}

	fmt.Fprintf(w, "\n    staged %d artifact(s) — publish with: packship publish --run %s --channel %s\n",
		report.Artifacts(), st.RunID(), rc.Channel)
	return nil
}
