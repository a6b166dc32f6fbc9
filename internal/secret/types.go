// Package secret resolves credential references so client secrets never sit
// in configuration files as bare literals. Supported reference forms are
// ${env:NAME}, ${keyring:NAME}, and ${obf:...} (the reversible obfuscation
// codec).
package secret

import "context"

// Reference types understood by the resolver.
const (
	TypeEnv     = "env"
	TypeKeyring = "keyring"
	TypeObf     = "obf"
)

// Ref is a parsed secret reference.
type Ref struct {
	Type     string // env, keyring, obf
	Name     string // variable name, keyring alias, or obfuscated payload
	Original string // the reference string as written
}

// Provider resolves one reference type.
type Provider interface {
	// CanResolve reports whether this provider handles the given type.
	CanResolve(secretType string) bool

	// Resolve retrieves the secret value for a reference.
	Resolve(ctx context.Context, ref Ref) (string, error)

	// Store saves a secret, for providers with writable backends.
	Store(ctx context.Context, ref Ref, value string) error

	// Delete removes a stored secret.
	Delete(ctx context.Context, ref Ref) error

	// IsAvailable reports whether the backend works on this system.
	IsAvailable() bool
}
