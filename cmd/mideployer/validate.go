package main

import (
	"fmt"

	"github.com/jpalmerr/mideployer"
	"github.com/jpalmerr/mideployer/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a miDeployer configuration file without starting the server.

This command parses the YAML, loads a neighbouring .env file, expands
environment variables, reads the users file and builds the board. It's
useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  mideployer validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	md, err := mideployer.New(opts...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	servers := 0
	for _, p := range md.Products() {
		servers += len(p.Servers())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Title:         %s\n", md.Title())
	fmt.Fprintf(out, "  Port:          %d\n", md.Port())
	fmt.Fprintf(out, "  Tick interval: %s\n", md.TickInterval())
	fmt.Fprintf(out, "  Countdown:     %d ticks\n", md.Countdown())
	fmt.Fprintf(out, "  Products:      %d (%d servers)\n", len(md.Products()), servers)
	fmt.Fprintf(out, "  Users:         %d\n", len(md.Users()))

	return nil
}
