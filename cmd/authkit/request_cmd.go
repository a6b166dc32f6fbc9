package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// getRequestCommand returns the request command
func getRequestCommand() *cobra.Command {
	var (
		clientName string
		method     string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "request <url>",
		Short: "Make an authenticated HTTP request as a client",
		Long:  "Send a request through the authenticating transport: a token is attached automatically, acquired or refreshed as needed, and a rejected token is retried once. The response body is written to stdout.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger, err := setupLogger(false)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cfg, err := loadConfig(ctx)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			auth, err := buildAuthenticator(cfg, clientName, "", logger)
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, method, args[0], http.NoBody)
			if err != nil {
				return fmt.Errorf("invalid request: %w", err)
			}

			httpClient := &http.Client{Transport: auth}
			resp, err := httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			fmt.Fprintf(os.Stderr, "%s %s\n", resp.Proto, resp.Status)
			if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
				return fmt.Errorf("failed to read response body: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&clientName, "client", "", "Client name from configuration (required)")
	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}
