// Package cli implements the rasterq command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rasterq",
	Short: "rasterq — raster tile priority dispatcher",
	Long: `rasterq drives a tiled compositor's raster work queue: it merges
many layer pairs' per-tree tile iterators into a single priority order and
fans the result out to a worker pool.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
