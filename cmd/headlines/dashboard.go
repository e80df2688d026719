package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pevans/headlines/dashboard"
	"github.com/spf13/cobra"
)

var dashboardAddr string

func init() {
	dashboardCmd.Flags().StringVar(&dashboardAddr, "addr", "", "Address to listen on (overrides config)")
	rootCmd.AddCommand(dashboardCmd)
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard [--addr <host:port>]",
	Short: "Serve the headline dashboard.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if dashboardAddr != "" {
			cfg.Addr = dashboardAddr
		}

		server := dashboard.NewServer(dashboard.StoreLoader(cfg.DBPath), logger)
		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           server.SetupRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- httpServer.ListenAndServe()
		}()

		logger.Info("dashboard listening", "url", "http://"+cfg.Addr, "db", cfg.DBPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Dashboard running on http://%s\n", cfg.Addr)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("dashboard server failed: %w", err)
			}
			return nil
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("shutting down dashboard")
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down dashboard: %w", err)
		}
		return nil
	},
}
