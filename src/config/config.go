package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".packship.yml"

// Config is the top-level packship configuration.
type Config struct {
	// Build configures the external build tool and staging locations.
	Build BuildConfig `yaml:"build"`

	// Targets is the platform matrix to build for.
	Targets []Target `yaml:"targets"`

	// Destinations are the remote buckets artifacts are published to.
	Destinations []Destination `yaml:"destinations"`

	// Publish tunes the publish phase (endpoint, concurrency, retries).
	Publish PublishConfig `yaml:"publish"`

	// Channels maps release channel names to build profiles.
	Channels map[string]Channel `yaml:"channels"`

	// DistrosFile points at the TOML distribution-matrix metadata.
	DistrosFile string `yaml:"distros_file"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns sensible defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// builtinChannels always resolve even without a configured profile.
var builtinChannels = map[string]bool{
	"stable":  true,
	"nightly": true,
	"dev":     true,
}

// KnownChannel reports whether name is a configured channel profile or
// one of the built-in channels.
func (c *Config) KnownChannel(name string) bool {
	if builtinChannels[name] {
		return true
	}
	_, ok := c.Channels[name]
	return ok
}

func defaults() *Config {
	return &Config{
		Build:       DefaultBuildConfig(),
		Publish:     DefaultPublishConfig(),
		DistrosFile: "distros.toml",
	}
}
