package config

import (
	"fmt"
	"strings"
)

// knownFormats are the package formats the publisher understands.
var knownFormats = map[string]bool{
	"tar": true,
	"deb": true,
	"rpm": true,
}

// Validate checks structural invariants of a loaded Config.
// Returns warnings (soft issues) and a hard error if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	// ── Targets ───────────────────────────────────────────────────────────

	if len(cfg.Targets) == 0 {
		errs = append(errs, "targets: at least one target is required")
	}

	targetNames := make(map[string]bool)
	for i, t := range cfg.Targets {
		tpath := fmt.Sprintf("targets[%d]", i)

		if t.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: name is required", tpath))
		} else if targetNames[t.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate target name %q", tpath, t.Name))
		} else {
			targetNames[t.Name] = true
		}

		if t.Arch == "" {
			errs = append(errs, fmt.Sprintf("%s: arch is required", tpath))
		}
		if t.OS == "" {
			errs = append(errs, fmt.Sprintf("%s: os is required", tpath))
		}

		if len(t.Formats) == 0 {
			errs = append(errs, fmt.Sprintf("%s: at least one format is required", tpath))
		}
		for _, f := range t.Formats {
			if !knownFormats[f] {
				errs = append(errs, fmt.Sprintf("%s: unknown format %q (supported: tar, deb, rpm)", tpath, f))
			}
		}
	}

	// ── Destinations ──────────────────────────────────────────────────────

	destNames := make(map[string]bool)
	for i, d := range cfg.Destinations {
		dpath := fmt.Sprintf("destinations[%d]", i)

		if d.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: name is required", dpath))
		} else if destNames[d.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate destination name %q", dpath, d.Name))
		} else {
			destNames[d.Name] = true
		}

		if d.Owner == "" {
			errs = append(errs, fmt.Sprintf("%s: owner is required", dpath))
		}
		if d.Repository == "" {
			errs = append(errs, fmt.Sprintf("%s: repository is required", dpath))
		}
		if d.Credentials == "" {
			warnings = append(warnings, fmt.Sprintf("%s: no credentials prefix — publish will fail unless --dry-run", dpath))
		}

		// A destination no target feeds is almost always a config typo.
		matched := false
		for _, t := range cfg.Targets {
			if MatchPatterns(d.Targets, t.Name) {
				matched = true
				break
			}
		}
		if !matched && len(cfg.Targets) > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: target patterns match no configured target", dpath))
		}
	}

	// ── Publish ───────────────────────────────────────────────────────────

	if len(cfg.Destinations) > 0 && cfg.Publish.Endpoint == "" {
		warnings = append(warnings, "publish.endpoint: not set — publish will fail unless --dry-run")
	}
	if cfg.Publish.Concurrency < 1 {
		errs = append(errs, fmt.Sprintf("publish.concurrency: must be >= 1, got %d", cfg.Publish.Concurrency))
	}
	if cfg.Publish.Retry.Attempts < 1 {
		errs = append(errs, fmt.Sprintf("publish.retry.attempts: must be >= 1, got %d", cfg.Publish.Retry.Attempts))
	}

	// ── Channels ──────────────────────────────────────────────────────────

	for name, ch := range cfg.Channels {
		matched := len(cfg.Targets) == 0
		for _, t := range cfg.Targets {
			if MatchPatterns(ch.Targets, t.Name) {
				matched = true
				break
			}
		}
		if !matched {
			warnings = append(warnings, fmt.Sprintf("channels.%s: target patterns match no configured target", name))
		}
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("invalid config:\n  %s", strings.Join(errs, "\n  "))
	}
	return warnings, nil
}
