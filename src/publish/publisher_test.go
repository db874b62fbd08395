package publish

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perigee-labs/packship/src/buildrun"
	"github.com/perigee-labs/packship/src/config"
	"github.com/perigee-labs/packship/src/store"
)

// fakeEndpoint records pushes and replays scripted failures, modeling a
// remote whose package slots are keyed by job identity (republish
// semantics: a second push overwrites, it never errors).
type fakeEndpoint struct {
	mu       sync.Mutex
	calls    int
	failures []error
	remote   map[string]string
}

func newFakeEndpoint(failures ...error) *fakeEndpoint {
	return &fakeEndpoint{failures: failures, remote: map[string]string{}}
}

func (f *fakeEndpoint) Push(ctx context.Context, job Job, apiKey string, body io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	data, err := io.ReadAll(body)
	if err != nil {
		return permanentErr(0, err)
	}

	if len(f.failures) > 0 {
		next := f.failures[0]
		f.failures = f.failures[1:]
		if next != nil {
			return next
		}
	}

	f.remote[job.ID()] = string(data)
	return nil
}

func testRetry() config.RetryConfig {
	return config.RetryConfig{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func stagedJob(t *testing.T) (store.Store, Job) {
	t.Helper()

	st, err := store.NewRun(t.TempDir())
	require.NoError(t, err)
	h, err := st.Put("linux-amd64-gnu", "pkg_1.2.3_amd64.deb", strings.NewReader("deb-bytes"))
	require.NoError(t, err)

	job := Job{
		Artifact: buildrun.Artifact{
			Name:   "pkg_1.2.3_amd64.deb",
			Format: "deb",
			Target: "linux-amd64-gnu",
			Handle: h,
		},
		Dest: config.Destination{
			Name:        "main-deb",
			Owner:       "perigee",
			Repository:  "pkg",
			Distro:      "ubuntu",
			Release:     "jammy",
			Credentials: "DIST",
		},
		Version:   "1.2.3",
		Republish: true,
	}
	return st, job
}

func newTestPublisher(ep Endpoint, st store.Store) *Publisher {
	p := NewPublisher(ep, st, testRetry())
	p.LookupEnv = func(key string) (string, bool) {
		if key == "DIST_API_KEY" {
			return "sekret", true
		}
		return "", false
	}
	return p
}

func TestPublishSucceeds(t *testing.T) {
	st, job := stagedJob(t)
	ep := newFakeEndpoint()
	p := newTestPublisher(ep, st)

	res := p.Publish(context.Background(), job)

	assert.Equal(t, "published", res.Status)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "deb-bytes", ep.remote[job.ID()])
}

func TestTransientFailureRetriedThenSucceeds(t *testing.T) {
	st, job := stagedJob(t)
	ep := newFakeEndpoint(transientErr(429, errors.New("rate limited")))
	p := newTestPublisher(ep, st)

	res := p.Publish(context.Background(), job)

	// The earlier transient failure leaves no trace in the outcome.
	assert.Equal(t, "published", res.Status)
	assert.Equal(t, 2, res.Attempts)
	assert.NoError(t, res.Error)
	assert.Equal(t, "deb-bytes", ep.remote[job.ID()], "retry must resend the full artifact")
}

func TestTransientFailuresExhaustBackoffBound(t *testing.T) {
	st, job := stagedJob(t)
	ep := newFakeEndpoint(
		transientErr(500, errors.New("boom")),
		transientErr(500, errors.New("boom")),
		transientErr(500, errors.New("boom")),
	)
	p := newTestPublisher(ep, st)

	res := p.Publish(context.Background(), job)

	assert.Equal(t, "failed", res.Status)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, ep.calls)

	var pe *Error
	require.ErrorAs(t, res.Error, &pe)
	assert.Equal(t, ClassTransient, pe.Class)
}

func TestAuthFailureNeverRetried(t *testing.T) {
	st, job := stagedJob(t)
	ep := newFakeEndpoint(authErr(401, errors.New("bad key")))
	p := newTestPublisher(ep, st)

	res := p.Publish(context.Background(), job)

	assert.Equal(t, "failed", res.Status)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, ep.calls)

	// Surfaced distinctly from transient failures.
	var pe *Error
	require.ErrorAs(t, res.Error, &pe)
	assert.Equal(t, ClassAuth, pe.Class)
}

func TestPermanentFailureNeverRetried(t *testing.T) {
	st, job := stagedJob(t)
	ep := newFakeEndpoint(permanentErr(422, errors.New("malformed package")))
	p := newTestPublisher(ep, st)

	res := p.Publish(context.Background(), job)

	assert.Equal(t, "failed", res.Status)
	assert.Equal(t, 1, ep.calls)
}

func TestMissingCredentialFailsBeforePush(t *testing.T) {
	st, job := stagedJob(t)
	ep := newFakeEndpoint()
	p := NewPublisher(ep, st, testRetry())
	p.LookupEnv = func(string) (string, bool) { return "", false }

	res := p.Publish(context.Background(), job)

	assert.Equal(t, "failed", res.Status)
	assert.Zero(t, ep.calls, "no network call without a credential")

	var pe *Error
	require.ErrorAs(t, res.Error, &pe)
	assert.Equal(t, ClassAuth, pe.Class)
}

func TestRepublishIsIdempotent(t *testing.T) {
	st, job := stagedJob(t)
	ep := newFakeEndpoint()
	p := newTestPublisher(ep, st)

	first := p.Publish(context.Background(), job)
	require.Equal(t, "published", first.Status)
	after1 := map[string]string{}
	for k, v := range ep.remote {
		after1[k] = v
	}

	second := p.Publish(context.Background(), job)
	require.Equal(t, "published", second.Status)

	// Remote state after two pushes equals the state after one.
	assert.Equal(t, after1, ep.remote)
}

func TestDryRunSkipsUpload(t *testing.T) {
	st, job := stagedJob(t)
	ep := newFakeEndpoint()
	p := newTestPublisher(ep, st)
	p.DryRun = true

	res := p.Publish(context.Background(), job)

	assert.Equal(t, "skipped", res.Status)
	assert.True(t, res.Succeeded())
	assert.Zero(t, ep.calls)
}

func TestMissingStagedArtifactIsPermanent(t *testing.T) {
	st, job := stagedJob(t)
	job.Artifact.Handle.Filename = "gone.deb"
	ep := newFakeEndpoint()
	p := newTestPublisher(ep, st)

	res := p.Publish(context.Background(), job)

	assert.Equal(t, "failed", res.Status)
	assert.Zero(t, ep.calls)
	assert.ErrorIs(t, res.Error, store.ErrNotFound)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	p := &Publisher{Retry: config.RetryConfig{
		Attempts:  5,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  300 * time.Millisecond,
	}}

	assert.Equal(t, 100*time.Millisecond, p.backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.backoff(2))
	assert.Equal(t, 300*time.Millisecond, p.backoff(3))
	assert.Equal(t, 300*time.Millisecond, p.backoff(4))
}
