package secret

import (
	"context"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ServiceName identifies this tool's entries in the OS keyring
// (Keychain on macOS, Secret Service on Linux, WinCred on Windows).
const ServiceName = "authkit"

// KeyringProvider resolves ${keyring:NAME} references from the OS keyring.
type KeyringProvider struct {
	serviceName string
}

// NewKeyringProvider creates a new keyring provider.
func NewKeyringProvider() *KeyringProvider {
	return &KeyringProvider{serviceName: ServiceName}
}

// CanResolve implements Provider.
func (p *KeyringProvider) CanResolve(secretType string) bool { return secretType == TypeKeyring }

// Resolve implements Provider.
func (p *KeyringProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	if !p.CanResolve(ref.Type) {
		return "", fmt.Errorf("keyring provider cannot resolve secret type: %s", ref.Type)
	}
	value, err := keyring.Get(p.serviceName, ref.Name)
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s from keyring: %w", ref.Name, err)
	}
	return value, nil
}

// Store implements Provider.
func (p *KeyringProvider) Store(_ context.Context, ref Ref, value string) error {
	if !p.CanResolve(ref.Type) {
		return fmt.Errorf("keyring provider cannot store secret type: %s", ref.Type)
	}
	if err := keyring.Set(p.serviceName, ref.Name, value); err != nil {
		return fmt.Errorf("failed to store secret %s in keyring: %w", ref.Name, err)
	}
	return nil
}

// Delete implements Provider.
func (p *KeyringProvider) Delete(_ context.Context, ref Ref) error {
	if !p.CanResolve(ref.Type) {
		return fmt.Errorf("keyring provider cannot delete secret type: %s", ref.Type)
	}
	if err := keyring.Delete(p.serviceName, ref.Name); err != nil {
		return fmt.Errorf("failed to delete secret %s from keyring: %w", ref.Name, err)
	}
	return nil
}

// IsAvailable implements Provider. Probes the keyring with a throwaway
// entry; headless systems frequently have no Secret Service running.
func (p *KeyringProvider) IsAvailable() bool {
	const testKey = "_authkit_availability_probe"
	if err := keyring.Set(p.serviceName, testKey, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(p.serviceName, testKey)
	return true
}
