package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/mideployer"
	"github.com/jpalmerr/mideployer/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// loadConfig loads path, or an empty configuration when path is "".
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse(nil)
	}
	return config.Load(path)
}

// serveCmd starts the deploy board.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the deploy board",
	Long: `Start the miDeployer deploy board.

Without a config file the built-in product catalog and users are used.
The server runs until interrupted (Ctrl+C) or receives SIGTERM. Running
countdowns are cancelled on shutdown.

Example:
  mideployer serve
  mideployer serve -c config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"file", configFile,
		"products", len(cfg.Products),
		"grids", len(cfg.Grids),
	)

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build board: %w", err)
	}
	opts = append(opts, mideployer.WithLogger(logger))

	md, err := mideployer.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create miDeployer: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runUntilDone(ctx, md, logger)
}

// runUntilDone starts md and waits for it to stop, giving up
// shutdownTimeout after ctx is cancelled.
func runUntilDone(ctx context.Context, md *mideployer.MiDeployer, logger *slog.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- md.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
