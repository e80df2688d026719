package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pevans/headlines/config"
	"github.com/pevans/headlines/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "headlines",
	Short: "headlines scrapes news headlines and serves them on a dashboard.",
	Long: `headlines scrapes article titles from a fixed set of news sites and
saves them to CSV, JSON and SQLite. Run without a subcommand to scrape once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runScrape,
}

// ExecuteContext runs the CLI and exits non-zero on error.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger every command shares.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)

	return cfg, logger, nil
}
