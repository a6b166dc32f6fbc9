package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// getLogoutCommand returns the logout command
func getLogoutCommand() *cobra.Command {
	var clientName string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Discard the cached token for a client",
		Long:  "Remove the client's token from every cache tier. The next request will run a fresh acquisition.",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger, err := setupLogger(false)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx := context.Background()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.FindClient(clientName) == nil {
				return fmt.Errorf("client not found in configuration: %s", clientName)
			}

			store, err := buildTokenStore(cfg, logger)
			if err != nil {
				return err
			}
			if err := store.Invalidate(clientName); err != nil {
				return fmt.Errorf("logout failed for %s: %w", clientName, err)
			}

			fmt.Printf("Logged out %s\n", clientName)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientName, "client", "", "Client name from configuration (required)")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}
