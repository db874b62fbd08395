package main

import (
	"os"

	"github.com/perigee-labs/packship/src/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
