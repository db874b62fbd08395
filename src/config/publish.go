package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Destination is one remote bucket artifacts are pushed into.
type Destination struct {
	// Name is a human-readable label for this destination.
	Name string `yaml:"name"`

	// Owner is the distribution namespace owner (org or user).
	Owner string `yaml:"owner"`

	// Repository is the package repository within the owner namespace.
	Repository string `yaml:"repository"`

	// Distro is the distribution bucket (e.g., "ubuntu", "el", "any-distro").
	Distro string `yaml:"distro"`

	// Release is the distro version bucket (e.g., "jammy", "9", "any-version").
	Release string `yaml:"release"`

	// Formats filters which artifact formats go to this destination.
	// Uses standard pattern syntax: regex, literal, or !negated.
	// Empty = all formats.
	Formats []string `yaml:"formats,omitempty"`

	// Targets filters which build targets feed this destination.
	// Empty = all targets.
	Targets []string `yaml:"targets,omitempty"`

	// Credentials is the env var prefix for authentication.
	// e.g., "CLOUDSMITH" → CLOUDSMITH_API_KEY env var.
	Credentials string `yaml:"credentials"`
}

// PublishConfig tunes the publish phase.
type PublishConfig struct {
	// Endpoint is the distribution service API base URL.
	Endpoint string `yaml:"endpoint"`

	// Concurrency bounds how many publish jobs run at once.
	// Respects the endpoint's rate limits.
	Concurrency int `yaml:"concurrency"`

	// Republish overwrites an existing remote package with the same
	// identity instead of failing. Channels may override this.
	Republish bool `yaml:"republish"`

	// Retry bounds transient-failure retries.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig bounds the backoff loop for transient publish failures.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first.
	Attempts int `yaml:"attempts"`

	// BaseDelay is the initial backoff delay, doubled per attempt.
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration `yaml:"max_delay"`
}

// UnmarshalYAML decodes delays from Go duration strings ("500ms", "8s").
// Absent fields keep their current (default) values.
func (r *RetryConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := struct {
		Attempts  int    `yaml:"attempts"`
		BaseDelay string `yaml:"base_delay"`
		MaxDelay  string `yaml:"max_delay"`
	}{Attempts: r.Attempts}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	r.Attempts = raw.Attempts
	if raw.BaseDelay != "" {
		d, err := time.ParseDuration(raw.BaseDelay)
		if err != nil {
			return fmt.Errorf("retry.base_delay: %w", err)
		}
		r.BaseDelay = d
	}
	if raw.MaxDelay != "" {
		d, err := time.ParseDuration(raw.MaxDelay)
		if err != nil {
			return fmt.Errorf("retry.max_delay: %w", err)
		}
		r.MaxDelay = d
	}
	return nil
}

// DefaultPublishConfig returns publish defaults.
func DefaultPublishConfig() PublishConfig {
	return PublishConfig{
		Concurrency: 4,
		Retry: RetryConfig{
			Attempts:  4,
			BaseDelay: 500 * time.Millisecond,
			MaxDelay:  8 * time.Second,
		},
	}
}
