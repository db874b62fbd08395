package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/perigee-labs/packship/src/config"
	"github.com/perigee-labs/packship/src/store"
)

// Publisher consumes jobs and pushes them to the endpoint, retrying
// transient failures with bounded exponential backoff. Credentials are
// resolved per-destination from the environment and never logged.
type Publisher struct {
	Endpoint Endpoint
	Store    store.Store
	Retry    config.RetryConfig
	DryRun   bool
	Verbose  bool
	Stderr   io.Writer

	// LookupEnv resolves credential env vars. Defaults to os.LookupEnv;
	// tests substitute a map lookup.
	LookupEnv func(key string) (string, bool)
}

// NewPublisher creates a publisher backed by the given endpoint and store.
func NewPublisher(endpoint Endpoint, st store.Store, retry config.RetryConfig) *Publisher {
	return &Publisher{
		Endpoint:  endpoint,
		Store:     st,
		Retry:     retry,
		Stderr:    os.Stderr,
		LookupEnv: os.LookupEnv,
	}
}

// Publish pushes one job to completion. The returned result is terminal:
// "published", "failed", or "skipped" for dry runs. Auth and permanent
// failures are never retried; transient failures are retried up to the
// configured attempt bound.
func (p *Publisher) Publish(ctx context.Context, job Job) Result {
	start := time.Now()
	result := Result{Job: job}

	if p.DryRun {
		result.Status = "skipped"
		result.Duration = time.Since(start)
		return result
	}

	apiKey, err := p.credential(job.Dest)
	if err != nil {
		result.Status = "failed"
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	attempts := p.Retry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result.Attempts = attempt

		err = p.push(ctx, job, apiKey)
		if err == nil {
			result.Status = "published"
			result.Duration = time.Since(start)
			return result
		}

		if !Retryable(err) || attempt == attempts {
			break
		}

		delay := p.backoff(attempt)
		if p.Verbose {
			fmt.Fprintf(p.Stderr, "publish: %s attempt %d/%d failed (%v), retrying in %s\n",
				job.ID(), attempt, attempts, err, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			result.Status = "failed"
			result.Error = ctx.Err()
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Status = "failed"
	result.Error = err
	result.Duration = time.Since(start)
	return result
}

// push streams the staged artifact to the endpoint. The store reader is
// reopened per attempt so retries always send the full artifact.
func (p *Publisher) push(ctx context.Context, job Job, apiKey string) error {
	r, err := p.Store.Get(job.Artifact.Handle)
	if err != nil {
		// A staging read failure is not the endpoint's fault and will
		// not heal on retry.
		return permanentErr(0, fmt.Errorf("reading staged artifact %s: %w", job.Artifact.Handle, err))
	}
	defer r.Close()

	return p.Endpoint.Push(ctx, job, apiKey, r)
}

// credential resolves the destination's API key from {PREFIX}_API_KEY.
// A missing key fails the job as an auth error before any network call.
func (p *Publisher) credential(dest config.Destination) (string, error) {
	if dest.Credentials == "" {
		return "", authErr(0, fmt.Errorf("destination %s has no credentials prefix", dest.Name))
	}

	envVar := dest.Credentials + "_API_KEY"
	key, ok := p.LookupEnv(envVar)
	if !ok || key == "" {
		return "", authErr(0, fmt.Errorf("credential %s is not set", envVar))
	}
	return key, nil
}

// backoff returns the delay before the next attempt: base doubled per
// attempt, capped at the configured maximum.
func (p *Publisher) backoff(attempt int) time.Duration {
	delay := p.Retry.BaseDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.Retry.MaxDelay > 0 && delay >= p.Retry.MaxDelay {
			return p.Retry.MaxDelay
		}
	}
	if p.Retry.MaxDelay > 0 && delay > p.Retry.MaxDelay {
		delay = p.Retry.MaxDelay
	}
	return delay
}
