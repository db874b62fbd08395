package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".packship.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, "exec", cfg.Build.Runner)
	assert.Equal(t, "packbuild", cfg.Build.Tool)
	assert.Equal(t, "dist", cfg.Build.OutputDir)
	assert.Equal(t, 4, cfg.Publish.Concurrency)
	assert.Equal(t, 4, cfg.Publish.Retry.Attempts)
	assert.Equal(t, "distros.toml", cfg.DistrosFile)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
build:
  tool: mk
  output_dir: out
  store_root: /tmp/store
targets:
  - name: linux-amd64-gnu
    arch: amd64
    os: linux
    libc: gnu
    formats: [deb, tar]
    env:
      CC: musl-gcc
destinations:
  - name: main
    owner: perigee
    repository: pkg
    distro: ubuntu
    release: jammy
    formats: [deb]
    credentials: DIST
publish:
  endpoint: https://dist.example.com
  concurrency: 2
  republish: true
  retry:
    attempts: 5
    base_delay: 250ms
    max_delay: 4s
channels:
  nightly:
    features: [nightly]
    republish: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mk", cfg.Build.Tool)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "musl-gcc", cfg.Targets[0].Env["CC"])
	assert.Equal(t, []string{"deb", "tar"}, cfg.Targets[0].Formats)

	require.Len(t, cfg.Destinations, 1)
	assert.Equal(t, "DIST", cfg.Destinations[0].Credentials)

	assert.Equal(t, "https://dist.example.com", cfg.Publish.Endpoint)
	assert.True(t, cfg.Publish.Republish)
	assert.Equal(t, 5, cfg.Publish.Retry.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Publish.Retry.BaseDelay)
	assert.Equal(t, 4*time.Second, cfg.Publish.Retry.MaxDelay)

	nightly, ok := cfg.Channels["nightly"]
	require.True(t, ok)
	require.NotNil(t, nightly.Republish)
	assert.True(t, *nightly.Republish)
}

func validConfig() *Config {
	cfg := defaults()
	cfg.Targets = []Target{
		{Name: "linux-amd64-gnu", Arch: "amd64", OS: "linux", Formats: []string{"deb"}},
	}
	cfg.Destinations = []Destination{
		{Name: "main", Owner: "o", Repository: "r", Distro: "ubuntu", Release: "jammy", Credentials: "DIST"},
	}
	cfg.Publish.Endpoint = "https://dist.example.com"
	return cfg
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	warnings, err := Validate(validConfig())
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no targets", func(c *Config) { c.Targets = nil }, "at least one target"},
		{"duplicate target", func(c *Config) { c.Targets = append(c.Targets, c.Targets[0]) }, "duplicate target name"},
		{"missing arch", func(c *Config) { c.Targets[0].Arch = "" }, "arch is required"},
		{"unknown format", func(c *Config) { c.Targets[0].Formats = []string{"apk"} }, "unknown format"},
		{"missing owner", func(c *Config) { c.Destinations[0].Owner = "" }, "owner is required"},
		{"zero concurrency", func(c *Config) { c.Publish.Concurrency = 0 }, "concurrency"},
		{"zero attempts", func(c *Config) { c.Publish.Retry.Attempts = 0 }, "attempts"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateWarnsOnUnmatchedDestination(t *testing.T) {
	cfg := validConfig()
	cfg.Destinations[0].Targets = []string{"^windows-"}

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "match no configured target")
}

func TestKnownChannel(t *testing.T) {
	cfg := validConfig()
	cfg.Channels = map[string]Channel{"beta": {}}

	assert.True(t, cfg.KnownChannel("stable"))
	assert.True(t, cfg.KnownChannel("nightly"))
	assert.True(t, cfg.KnownChannel("dev"))
	assert.True(t, cfg.KnownChannel("beta"))
	assert.False(t, cfg.KnownChannel("nigthly"))
	assert.False(t, cfg.KnownChannel(""))
}

func TestMatchPatterns(t *testing.T) {
	cases := []struct {
		patterns []string
		value    string
		want     bool
	}{
		{nil, "anything", true},
		{[]string{"^linux-"}, "linux-amd64-gnu", true},
		{[]string{"^linux-"}, "darwin-arm64", false},
		{[]string{"!^linux-arm"}, "linux-amd64-gnu", true},
		{[]string{"!^linux-arm"}, "linux-arm64-musl", false},
		{[]string{"^linux-", "!musl$"}, "linux-arm64-musl", false},
		{[]string{"deb"}, "deb", true},
		{[]string{"["}, "[", true}, // invalid regex falls back to literal
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchPatterns(tc.patterns, tc.value),
			"patterns %v against %q", tc.patterns, tc.value)
	}
}
