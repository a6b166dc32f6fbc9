package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// getCacheCommand returns the cache maintenance command
func getCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the on-disk token cache",
	}

	cacheCmd.AddCommand(getCacheSweepCommand())
	cacheCmd.AddCommand(getCacheClearCommand())

	return cacheCmd
}

// getCacheSweepCommand returns the cache sweep command
func getCacheSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete cache entries older than the retention window",
		Long:  "Run the retention sweep immediately. Entries stored more than 30 days ago are deleted regardless of token expiry. The sweep also runs automatically whenever the disk cache is opened.",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger, err := setupLogger(false)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := loadConfig(context.Background())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// Opening the store runs the sweep.
			if _, err := buildDiskStore(cfg, logger); err != nil {
				return err
			}
			fmt.Println("Cache sweep complete")
			return nil
		},
	}
}

// getCacheClearCommand returns the cache clear command
func getCacheClearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached token",
		Long:  "Remove the entire cache directory, dropping all stored tokens for all clients. Every client will need to re-authenticate.",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger, err := setupLogger(false)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := loadConfig(context.Background())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			if !yes {
				fmt.Printf("Delete all cached tokens under %s? (y/N): ", cfg.Cache.Dir)
				var response string
				_, _ = fmt.Scanln(&response)
				if response != "y" && response != "Y" {
					fmt.Println("Cancelled")
					return nil
				}
			}

			if err := os.RemoveAll(cfg.Cache.Dir); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Println("Cache cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
