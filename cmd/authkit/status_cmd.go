package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/authkit-dev/authkit/internal/config"
	"github.com/authkit-dev/authkit/internal/oauth"
)

// clientStatus is one row of status output.
type clientStatus struct {
	Client     string `json:"client"`
	Flow       string `json:"flow"`
	Status     string `json:"status"`
	ExpiresAt  string `json:"expires_at,omitempty"`
	CanRefresh bool   `json:"can_refresh"`
}

// getStatusCommand returns the status command
func getStatusCommand() *cobra.Command {
	var (
		clientName string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the authentication state of configured clients",
		Long:  "Report whether each client holds a valid cached token, an expired one, or none. Token values are never displayed.",
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

			store, err := buildTokenStore(cfg, logger)
			if err != nil {
				return err
			}

			clients := cfg.Clients
			if clientName != "" {
				entry := cfg.FindClient(clientName)
				if entry == nil {
					return fmt.Errorf("client not found in configuration: %s", clientName)
				}
				clients = []*config.ClientConfig{entry}
			}

			statuses := make([]clientStatus, 0, len(clients))
			for _, entry := range clients {
				token, err := store.Get(entry.Name)
				if err != nil {
					logger.Warn("Failed to read cached token",
						zap.String("client", entry.Name), zap.Error(err))
					token = nil
				}

				row := clientStatus{
					Client:     entry.Name,
					Flow:       entry.Flow,
					Status:     oauth.CalculateStatus(token).String(),
					CanRefresh: oauth.CanRefresh(token),
				}
				if token != nil && !token.ExpiresAt.IsZero() {
					row.ExpiresAt = token.ExpiresAt.Format("2006-01-02 15:04:05 MST")
				}
				statuses = append(statuses, row)
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(statuses)
			}

			if len(statuses) == 0 {
				fmt.Println("No clients configured")
				return nil
			}
			for _, row := range statuses {
				line := fmt.Sprintf("%-20s %-20s %s", row.Client, row.Flow, row.Status)
				if row.ExpiresAt != "" {
					line += fmt.Sprintf(" (expires %s)", row.ExpiresAt)
				}
				if row.Status == oauth.StatusExpired.String() && row.CanRefresh {
					line += " [refreshable]"
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&clientName, "client", "", "Limit output to one client")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
