package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/authkit-dev/authkit/internal/secret"
)

// GetSecretsCommand returns the secrets management command
func GetSecretsCommand() *cobra.Command {
	secretsCmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage secrets referenced from configuration",
		Long:  "Store, retrieve, and manage secrets in the OS keyring (Keychain on macOS, Secret Service on Linux, WinCred on Windows), and obfuscate values for config files that must not carry cleartext.",
	}

	secretsCmd.AddCommand(getSecretsSetCommand())
	secretsCmd.AddCommand(getSecretsGetCommand())
	secretsCmd.AddCommand(getSecretsDeleteCommand())
	secretsCmd.AddCommand(getSecretsObfuscateCommand())

	return secretsCmd
}

// getSecretsSetCommand returns the secrets set command
func getSecretsSetCommand() *cobra.Command {
	var fromEnv string

	cmd := &cobra.Command{
		Use:   "set <name> [value]",
		Short: "Store a secret in the keyring",
		Long:  "Store a secret in the OS keyring. If no value is provided, will prompt for input.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]
			var value string

			switch {
			case len(args) >= 2:
				value = args[1]
			case fromEnv != "":
				value = os.Getenv(fromEnv)
				if value == "" {
					return fmt.Errorf("environment variable %s is not set or empty", fromEnv)
				}
			default:
				fmt.Print("Enter secret value: ")
				if _, err := fmt.Scanln(&value); err != nil {
					return fmt.Errorf("failed to read value: %w", err)
				}
			}

			if value == "" {
				return fmt.Errorf("secret value cannot be empty")
			}

			resolver := secret.NewResolver()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			ref := secret.Ref{Type: secret.TypeKeyring, Name: name}
			if err := resolver.Store(ctx, ref, value); err != nil {
				return fmt.Errorf("failed to store secret: %w", err)
			}

			fmt.Printf("Secret '%s' stored in keyring\n", name)
			fmt.Printf("Use in config: ${keyring:%s}\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromEnv, "from-env", "", "Read value from environment variable")

	return cmd
}

// getSecretsGetCommand returns the secrets get command
func getSecretsGetCommand() *cobra.Command {
	var masked bool

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Retrieve a secret from the keyring",
		Long:  "Retrieve a secret from the OS keyring. By default, output is masked for security.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]

			resolver := secret.NewResolver()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			value, err := resolver.Resolve(ctx, secret.Ref{Type: secret.TypeKeyring, Name: name})
			if err != nil {
				return fmt.Errorf("failed to retrieve secret: %w", err)
			}

			if masked {
				fmt.Printf("%s: %s\n", name, secret.MaskSecretValue(value))
			} else {
				fmt.Printf("%s: %s\n", name, value)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&masked, "masked", true, "Mask the secret value in output")

	return cmd
}

// getSecretsDeleteCommand returns the secrets delete command
func getSecretsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "del <name>",
		Short: "Delete a secret from the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]

			resolver := secret.NewResolver()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := resolver.Delete(ctx, secret.Ref{Type: secret.TypeKeyring, Name: name}); err != nil {
				return fmt.Errorf("failed to delete secret: %w", err)
			}

			fmt.Printf("Secret '%s' deleted from keyring\n", name)
			return nil
		},
	}
}

// getSecretsObfuscateCommand returns the secrets obfuscate command
func getSecretsObfuscateCommand() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "obfuscate <value>",
		Short: "Obfuscate a value for use in config files",
		Long:  "Encode a value so it is not readable at a glance in config files or logs. This is reversible deterrence, not encryption; anyone with this tool can reveal it. Use the keyring for real secrecy.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if reveal {
				value, err := secret.Reveal(args[0])
				if err != nil {
					return fmt.Errorf("failed to reveal value: %w", err)
				}
				fmt.Println(value)
				return nil
			}

			encoded := secret.Obfuscate(args[0])
			fmt.Println(encoded)
			fmt.Printf("Use in config: ${obf:%s}\n", encoded)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Decode an obfuscated value instead")

	return cmd
}
