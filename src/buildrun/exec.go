package buildrun

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/perigee-labs/packship/src/config"
	"github.com/perigee-labs/packship/src/store"
)

func init() {
	Register("exec", func(cfg config.BuildConfig) Runner {
		return NewExecRunner(cfg)
	})
}

// ExecRunner invokes the external build tool for one target. The tool's
// contract: exit code 0 = success, artifacts written to the conventional
// per-target output directory.
type ExecRunner struct {
	cfg    config.BuildConfig
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates an ExecRunner with default output writers.
func NewExecRunner(cfg config.BuildConfig) *ExecRunner {
	return &ExecRunner{
		cfg:    cfg,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (r *ExecRunner) Name() string { return "exec" }

// Build runs the tool and stages its artifacts. Staging happens only
// after the tool exits 0, so a failed build leaves nothing visible in
// the store.
func (r *ExecRunner) Build(ctx context.Context, req Request, st store.Store) (*Result, error) {
	start := time.Now()
	result := &Result{Target: req.Target.Name}

	outDir := filepath.Join(r.cfg.OutputDir, req.Target.Name)
	args := r.buildArgs(req, outDir)

	// The tool writes into a shared conventional directory; anything a
	// previous invocation left there must not be staged as this run's
	// output, so start from an empty directory every time.
	if err := resetDir(outDir); err != nil {
		result.Status = "failed"
		result.Duration = time.Since(start)
		result.Error = fmt.Errorf("preparing output dir for %s: %w", req.Target.Name, err)
		return result, result.Error
	}

	if req.Verbose {
		fmt.Fprintf(r.Stderr, "exec: %s %s\n", r.cfg.Tool, strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, r.cfg.Tool, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Env = r.buildEnv(req)

	if err := cmd.Run(); err != nil {
		result.Status = "failed"
		result.Duration = time.Since(start)
		result.Error = fmt.Errorf("%s build for %s failed: %w", r.cfg.Tool, req.Target.Name, err)
		return result, result.Error
	}

	artifacts, err := r.stage(req.Target, outDir, st)
	if err != nil {
		result.Status = "failed"
		result.Duration = time.Since(start)
		result.Error = err
		return result, result.Error
	}

	result.Status = "success"
	result.Artifacts = artifacts
	result.Duration = time.Since(start)
	return result, nil
}

// buildArgs constructs the build tool argument list.
func (r *ExecRunner) buildArgs(req Request, outDir string) []string {
	args := append([]string{}, r.cfg.Args...)
	args = append(args, "build", "--target", req.Target.Name)

	if len(req.Features) > 0 {
		args = append(args, "--features", strings.Join(req.Features, ","))
	}
	if req.Version != "" {
		args = append(args, "--version", req.Version)
	}
	args = append(args, "--output", outDir)

	return args
}

// buildEnv merges the process environment with target-specific vars.
func (r *ExecRunner) buildEnv(req Request) []string {
	env := os.Environ()
	for k, v := range req.Target.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	env = append(env,
		fmt.Sprintf("PACKSHIP_CHANNEL=%s", req.Channel),
		fmt.Sprintf("PACKSHIP_VERSION=%s", req.Version),
	)
	return env
}

// resetDir empties dir, creating it if needed.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// stage copies every recognized package file from the tool's output
// directory into the artifact store.
func (r *ExecRunner) stage(target config.Target, outDir string, st store.Store) ([]Artifact, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("reading build output for %s: %w", target.Name, err)
	}

	wanted := make(map[string]bool, len(target.Formats))
	for _, f := range target.Formats {
		wanted[f] = true
	}

	var artifacts []Artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		format := FormatOf(e.Name())
		if format == "" || !wanted[format] {
			continue
		}

		f, err := os.Open(filepath.Join(outDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("staging %s: %w", e.Name(), err)
		}
		handle, err := st.Put(target.Name, e.Name(), f)
		f.Close()
		if err != nil {
			return nil, err
		}

		artifacts = append(artifacts, Artifact{
			Name:   e.Name(),
			Format: format,
			Target: target.Name,
			Handle: handle,
		})
	}

	if len(artifacts) == 0 {
		return nil, fmt.Errorf("build for %s produced no artifacts in %s (expected formats: %s)",
			target.Name, outDir, strings.Join(target.Formats, ", "))
	}
	return artifacts, nil
}
