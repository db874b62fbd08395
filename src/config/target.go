package config

// Target defines one platform the build matrix produces packages for.
// Targets are immutable once loaded — the pipeline only reads them.
type Target struct {
	// Name is the unique identifier for this target (logging, status,
	// CLI filtering, store namespacing). e.g., "linux-amd64-gnu".
	Name string `yaml:"name"`

	// Arch is the CPU architecture: amd64, arm64, ...
	Arch string `yaml:"arch"`

	// OS is the operating system: linux, darwin, ...
	OS string `yaml:"os"`

	// Libc is the C library variant: gnu, musl. Empty for non-Linux.
	Libc string `yaml:"libc,omitempty"`

	// Env are extra environment variables passed to the build tool.
	Env map[string]string `yaml:"env,omitempty"`

	// Formats are the package formats this target produces:
	// tar, deb, rpm. At least one is required.
	Formats []string `yaml:"formats"`

	// Features overrides the channel's feature set for this target.
	Features []string `yaml:"features,omitempty"`
}

// BuildConfig configures the external build tool invocation.
type BuildConfig struct {
	// Runner selects the registered build runner implementation.
	Runner string `yaml:"runner"`

	// Tool is the build tool binary name or path.
	Tool string `yaml:"tool"`

	// Args are extra arguments prepended to every invocation.
	Args []string `yaml:"args,omitempty"`

	// OutputDir is the conventional directory the tool writes
	// artifacts to, relative to the working directory.
	OutputDir string `yaml:"output_dir"`

	// StoreRoot is where staged artifacts live, namespaced per run.
	StoreRoot string `yaml:"store_root"`
}

// DefaultBuildConfig returns build defaults.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Runner:    "exec",
		Tool:      "packbuild",
		OutputDir: "dist",
		StoreRoot: ".packship/store",
	}
}

// Channel is a release-track build profile. The channel selector arrives
// from the trigger (CLI flag or schedule) and picks one of these.
type Channel struct {
	// Features is the feature-set selector passed to the build tool.
	Features []string `yaml:"features,omitempty"`

	// Republish, when set, overrides the publish-phase republish default
	// for this channel. Nightlies typically republish; stable does not.
	Republish *bool `yaml:"republish,omitempty"`

	// Targets restricts the channel to matching target names.
	// Uses standard pattern syntax: regex, literal, or !negated.
	// Empty = all targets.
	Targets []string `yaml:"targets,omitempty"`
}
