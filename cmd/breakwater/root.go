package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "breakwater",
	Short: "Breakwater - request admission gateway",
	Long: `Breakwater is a request admission gateway that protects an HTTP
application from overload.

Each incoming request is checked against a configurable chain of
rate-limiting rules before it reaches the application:
  - Fixed window, sliding log, and sliding counter request counting
  - Token bucket and leaky bucket pacing
  - Delayed admission (throttle) instead of rejection
  - Audit trail of admission decisions (memory or SQLite)

Over-limit requests are answered 429 with a Retry-After hint, or parked
until capacity frees up when the gateway runs in delay mode.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
