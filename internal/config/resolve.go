package config

import (
	"context"
	"fmt"

	"github.com/authkit-dev/authkit/internal/secret"
)

// ResolveSecrets replaces secret references in credential fields with their
// resolved values. It mutates the config in place and must run before any
// client is converted for use; plain values pass through untouched.
func ResolveSecrets(ctx context.Context, cfg *Config, resolver *secret.Resolver) error {
	for _, client := range cfg.Clients {
		resolved, err := resolver.ResolveString(ctx, client.ClientSecret)
		if err != nil {
			return fmt.Errorf("client %s: failed to resolve client_secret: %w", client.Name, err)
		}
		client.ClientSecret = resolved

		resolved, err = resolver.ResolveString(ctx, client.Password)
		if err != nil {
			return fmt.Errorf("client %s: failed to resolve password: %w", client.Name, err)
		}
		client.Password = resolved
	}
	return nil
}
