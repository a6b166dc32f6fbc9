package secret

import (
	"context"
	"fmt"
	"os"
)

// EnvProvider resolves ${env:NAME} references from the process environment.
// Read-only: the environment is not a place this tool writes secrets to.
type EnvProvider struct{}

// NewEnvProvider creates a new environment variable provider.
func NewEnvProvider() *EnvProvider { return &EnvProvider{} }

// CanResolve implements Provider.
func (p *EnvProvider) CanResolve(secretType string) bool { return secretType == TypeEnv }

// Resolve implements Provider.
func (p *EnvProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	if !p.CanResolve(ref.Type) {
		return "", fmt.Errorf("env provider cannot resolve secret type: %s", ref.Type)
	}
	value, ok := os.LookupEnv(ref.Name)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", ref.Name)
	}
	return value, nil
}

// Store implements Provider.
func (p *EnvProvider) Store(_ context.Context, _ Ref, _ string) error {
	return fmt.Errorf("env provider is read-only")
}

// Delete implements Provider.
func (p *EnvProvider) Delete(_ context.Context, _ Ref) error {
	return fmt.Errorf("env provider is read-only")
}

// IsAvailable implements Provider.
func (p *EnvProvider) IsAvailable() bool { return true }
