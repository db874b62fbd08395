package distro

import (
	"fmt"
	"strings"
)

// GenerateDocs renders the distribution matrix as markdown for the
// documentation site. One section per distro with a version-bucket table.
func GenerateDocs(m *Matrix) string {
	var b strings.Builder

	b.WriteString("# Supported distributions\n")

	for _, d := range m.Distros {
		b.WriteString(fmt.Sprintf("\n## %s (`%s`)\n\n", displayName(d), d.Slug))
		if d.Description != "" {
			b.WriteString(d.Description + "\n\n")
		}
		if len(d.Formats) > 0 {
			b.WriteString(fmt.Sprintf("Accepted formats: %s\n\n", codeJoin(d.Formats)))
		}

		if len(d.Releases) == 0 {
			b.WriteString("_Any version bucket._\n")
			continue
		}

		b.WriteString("| Version bucket | Name | Status |\n")
		b.WriteString("|----------------|------|--------|\n")
		for _, r := range d.Releases {
			status := "supported"
			if r.EOL {
				status = "EOL"
			}
			name := r.Name
			if name == "" {
				name = "-"
			}
			b.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n", r.Slug, name, status))
		}
	}

	return b.String()
}

func displayName(d Distro) string {
	if d.Name != "" {
		return d.Name
	}
	return d.Slug
}

func codeJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}
