package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/perigee-labs/packship/src/output"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the configured target matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		color := output.UseColor()
		w := os.Stdout

		sec := output.NewSection(w, "Targets", 0, color)
		sec.Row("%-20s %-8s %-8s %-6s %s", "name", "arch", "os", "libc", "formats")
		sec.Separator()
		for _, t := range cfg.Targets {
			libc := t.Libc
			if libc == "" {
				libc = "-"
			}
			sec.Row("%-20s %-8s %-8s %-6s %s", t.Name, t.Arch, t.OS, libc, strings.Join(t.Formats, ", "))
		}
		sec.Close()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
