// Package distro loads the distribution-matrix metadata file. The file
// describes every distro bucket the distribution service accepts, which
// package formats each bucket takes, and the version buckets underneath
// it. Destinations in the main config are validated against this matrix,
// and the docs command renders it as a markdown table.
package distro

import (
	"fmt"
	"os"
	"sort"

	toml "github.com/pelletier/go-toml/v2"
)

// Matrix is the parsed distribution metadata.
type Matrix struct {
	Distros []Distro `toml:"distro"`
}

// Distro is one distribution bucket (e.g., ubuntu, el, any-distro).
type Distro struct {
	// Slug is the identifier used in destination coordinates.
	Slug string `toml:"slug"`

	// Name is the display name for documentation.
	Name string `toml:"name"`

	// Formats are the package formats this bucket accepts.
	Formats []string `toml:"formats"`

	// Description is an optional one-line doc string.
	Description string `toml:"description,omitempty"`

	// Releases are the version buckets under this distro.
	Releases []Release `toml:"release"`
}

// Release is one version bucket under a distro.
type Release struct {
	Slug string `toml:"slug"`
	Name string `toml:"name"`

	// EOL marks version buckets the service still accepts but that
	// should be flagged in documentation.
	EOL bool `toml:"eol,omitempty"`
}

// Load reads and parses a distribution matrix from a TOML file.
func Load(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Matrix
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := m.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// check enforces structural invariants after parsing.
func (m *Matrix) check() error {
	seen := make(map[string]bool)
	for i, d := range m.Distros {
		if d.Slug == "" {
			return fmt.Errorf("distro[%d]: slug is required", i)
		}
		if seen[d.Slug] {
			return fmt.Errorf("distro[%d]: duplicate slug %q", i, d.Slug)
		}
		seen[d.Slug] = true

		rels := make(map[string]bool)
		for j, r := range d.Releases {
			if r.Slug == "" {
				return fmt.Errorf("distro %q release[%d]: slug is required", d.Slug, j)
			}
			if rels[r.Slug] {
				return fmt.Errorf("distro %q release[%d]: duplicate slug %q", d.Slug, j, r.Slug)
			}
			rels[r.Slug] = true
		}
	}
	return nil
}

// Find returns the distro with the given slug, or nil.
func (m *Matrix) Find(slug string) *Distro {
	for i := range m.Distros {
		if m.Distros[i].Slug == slug {
			return &m.Distros[i]
		}
	}
	return nil
}

// ValidateCoordinates checks that a (distro, release, format) triple is
// accepted by the matrix. An empty matrix accepts everything — the
// metadata file is optional.
func (m *Matrix) ValidateCoordinates(distroSlug, releaseSlug, format string) error {
	if m == nil || len(m.Distros) == 0 {
		return nil
	}

	d := m.Find(distroSlug)
	if d == nil {
		return fmt.Errorf("unknown distro %q (known: %s)", distroSlug, joinSlugs(m.Distros))
	}

	formatOK := len(d.Formats) == 0
	for _, f := range d.Formats {
		if f == format {
			formatOK = true
			break
		}
	}
	if !formatOK {
		return fmt.Errorf("distro %q does not accept format %q", distroSlug, format)
	}

	if len(d.Releases) == 0 {
		return nil
	}
	for _, r := range d.Releases {
		if r.Slug == releaseSlug {
			return nil
		}
	}
	return fmt.Errorf("distro %q has no version bucket %q", distroSlug, releaseSlug)
}

func joinSlugs(distros []Distro) string {
	slugs := make([]string, 0, len(distros))
	for _, d := range distros {
		slugs = append(slugs, d.Slug)
	}
	sort.Strings(slugs)

	out := ""
	for i, s := range slugs {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
