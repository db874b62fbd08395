package buildrun

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/perigee-labs/packship/src/store"
)

// Artifact is one built package file, tied to exactly one target and
// one package format. Read-only once created.
type Artifact struct {
	Name   string // logical name, e.g. "packship_1.2.3_amd64.deb"
	Format string // tar, deb, rpm
	Target string // producing target name
	Handle store.Handle
}

// Result captures the outcome of one target's build.
type Result struct {
	Target    string
	Status    string // "success", "failed"
	Artifacts []Artifact
	Duration  time.Duration
	Error     error
}

// FormatOf infers the package format from an artifact filename.
// Unknown extensions map to "" and are skipped during staging.
func FormatOf(filename string) string {
	name := filepath.Base(filename)
	switch {
	case strings.HasSuffix(name, ".deb"):
		return "deb"
	case strings.HasSuffix(name, ".rpm"):
		return "rpm"
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"), strings.HasSuffix(name, ".tar.xz"):
		return "tar"
	default:
		return ""
	}
}
