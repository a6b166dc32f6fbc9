package secret

import (
	"context"
	"fmt"
)

// Resolver dispatches secret references to the provider for their type.
type Resolver struct {
	providers map[string]Provider
}

// NewResolver creates a resolver with the default providers registered:
// env, keyring, and the obfuscation codec.
func NewResolver() *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	r.Register(TypeEnv, NewEnvProvider())
	r.Register(TypeKeyring, NewKeyringProvider())
	r.Register(TypeObf, NewObfProvider())
	return r
}

// Register adds or replaces the provider for a reference type.
func (r *Resolver) Register(secretType string, provider Provider) {
	r.providers[secretType] = provider
}

// Resolve resolves a single parsed reference.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (string, error) {
	provider, ok := r.providers[ref.Type]
	if !ok {
		return "", fmt.Errorf("no provider for secret type: %s", ref.Type)
	}
	if !provider.IsAvailable() {
		return "", fmt.Errorf("provider for %s is not available on this system", ref.Type)
	}
	return provider.Resolve(ctx, ref)
}

// ResolveString resolves a config value in place: secret references are
// replaced by their resolved value, anything else passes through untouched.
func (r *Resolver) ResolveString(ctx context.Context, value string) (string, error) {
	if !IsSecretRef(value) {
		return value, nil
	}
	ref, err := ParseRef(value)
	if err != nil {
		return "", err
	}
	return r.Resolve(ctx, ref)
}

// Store saves a secret through the provider for its type.
func (r *Resolver) Store(ctx context.Context, ref Ref, value string) error {
	provider, ok := r.providers[ref.Type]
	if !ok {
		return fmt.Errorf("no provider for secret type: %s", ref.Type)
	}
	if !provider.IsAvailable() {
		return fmt.Errorf("provider for %s is not available on this system", ref.Type)
	}
	return provider.Store(ctx, ref, value)
}

// Delete removes a stored secret through the provider for its type.
func (r *Resolver) Delete(ctx context.Context, ref Ref) error {
	provider, ok := r.providers[ref.Type]
	if !ok {
		return fmt.Errorf("no provider for secret type: %s", ref.Type)
	}
	return provider.Delete(ctx, ref)
}
