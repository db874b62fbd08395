package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/perigee-labs/packship/src/distro"
)

var distrosDocsOut string

var distrosCmd = &cobra.Command{
	Use:   "distros",
	Short: "Distribution matrix commands",
}

var distrosDocsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Render the distribution matrix as markdown",
	Long: `Render the distros.toml metadata as markdown documentation: one
section per distro with its accepted formats and version buckets.`,
	RunE: runDistrosDocs,
}

func init() {
	distrosDocsCmd.Flags().StringVar(&distrosDocsOut, "out", "", "write to file instead of stdout")

	distrosCmd.AddCommand(distrosDocsCmd)
	rootCmd.AddCommand(distrosCmd)
}

func runDistrosDocs(cmd *cobra.Command, args []string) error {
	m, err := distro.Load(cfg.DistrosFile)
	if err != nil {
		return fmt.Errorf("loading distribution matrix: %w", err)
	}

	docs := distro.GenerateDocs(m)

	if distrosDocsOut == "" {
		fmt.Print(docs)
		return nil
	}
	if err := os.WriteFile(distrosDocsOut, []byte(docs), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", distrosDocsOut, err)
	}
	fmt.Printf("wrote %s\n", distrosDocsOut)
	return nil
}
