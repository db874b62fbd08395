package output

import (
	"fmt"
	"io"
	"os"
	"time"
)

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true"
}

func IsGitLabCI() bool {
	return os.Getenv("GITLAB_CI") == "true"
}

// GitLab collapsible section helpers.

func SectionStart(w io.Writer, id, name string) {
	sectionStart(w, id, name, false)
}

// SectionStartCollapsed starts a section that is collapsed by default.
// Used for phases whose output is dominated by the build tool.
func SectionStartCollapsed(w io.Writer, id, name string) {
	sectionStart(w, id, name, true)
}

func sectionStart(w io.Writer, id, name string, collapsed bool) {
	if !IsGitLabCI() {
		return
	}
	opts := ""
	if collapsed {
		opts = "[collapsed=true]"
	}
	fmt.Fprintf(w, "\033[0Ksection_start:%d:%s%s\r\033[0K%s\n", time.Now().Unix(), id, opts, name)
}

func SectionEnd(w io.Writer, id string) {
	if !IsGitLabCI() {
		return
	}
	fmt.Fprintf(w, "\033[0Ksection_end:%d:%s\r\033[0K\n", time.Now().Unix(), id)
}
