package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	logToFile  bool
	logDir     string

	version = "v0.1.0" // Injected by -ldflags during build
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "authkit",
		Short:   "OAuth 2.0 token lifecycle manager - acquire, cache, and refresh tokens across six grant types",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory path (default: ~/.authkit)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-to-file", false, "Enable logging to file in standard OS location")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Custom log directory path (overrides standard OS location)")

	rootCmd.AddCommand(getLoginCommand())
	rootCmd.AddCommand(getStatusCommand())
	rootCmd.AddCommand(getLogoutCommand())
	rootCmd.AddCommand(getRequestCommand())
	rootCmd.AddCommand(getCacheCommand())
	rootCmd.AddCommand(GetSecretsCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
