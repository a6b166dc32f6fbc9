package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// getLoginCommand returns the login command
func getLoginCommand() *cobra.Command {
	var (
		clientName string
		flowName   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Acquire a token for a client and store it in the cache",
		Long:  "Run the client's configured OAuth flow (or an override) and persist the resulting token. Interactive flows open a browser or print a device code.",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger, err := setupLogger(true)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			auth, err := buildAuthenticator(cfg, clientName, flowName, logger)
			if err != nil {
				return err
			}

			token, err := auth.Token(ctx)
			if err != nil {
				return fmt.Errorf("login failed for %s: %w", clientName, err)
			}

			fmt.Printf("Logged in as %s\n", clientName)
			if !token.ExpiresAt.IsZero() {
				fmt.Printf("Token expires at %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&clientName, "client", "", "Client name from configuration (required)")
	cmd.Flags().StringVar(&flowName, "flow", "", "Override the configured flow for this login")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}
