package main

import (
	"fmt"

	"github.com/jpalmerr/mideployer/config"
	"github.com/spf13/cobra"
)

// catalogCmd prints the products and servers a board would show.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List products and servers",
	Long: `List the products and servers the board would show, with each
server's link. Without a config file the built-in catalog is listed.

Example:
  mideployer catalog
  mideployer catalog -c config.yaml`,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringP("config", "c", "", "path to config file")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	products, err := config.BuildProducts(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, p := range products {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, p.Name())
		for _, host := range p.Servers() {
			fmt.Fprintf(out, "  %-32s https://%s/\n", host, host)
		}
	}
	return nil
}
