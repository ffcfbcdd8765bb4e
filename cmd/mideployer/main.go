// Package main is the entry point for the mideployer CLI.
//
// miDeployer can be run either as a library (SDK) or as a standalone binary
// with optional YAML configuration. This CLI provides the standalone binary
// approach.
//
// Usage:
//
//	mideployer serve                    # Start with the built-in catalog
//	mideployer serve -c config.yaml     # Start with a config file
//	mideployer validate -c config.yaml  # Validate configuration
//	mideployer catalog [-c config.yaml] # List products and servers
//	mideployer version                  # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "mideployer",
	Short: "A mock deploy board",
	Long: `miDeployer is a mock deploy board.

It lists servers grouped by product. Pick a user, type a branch and press
Deploy: a simulated countdown runs and the server is marked deployed.
Nothing is actually deployed.

Quick start:
  1. Run: mideployer serve
  2. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  tick_interval: 1s
  products:
    - name: CorporateTube
      servers: [test.qa1.corporate.tube]`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already prints the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this mideployer binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mideployer %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
