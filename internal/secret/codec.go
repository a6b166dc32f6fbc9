package secret

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// obfPrefix marks an obfuscated value. The version suffix leaves room for a
// different keystream later without breaking stored values.
const obfPrefix = "obf1:"

// obfKey is the fixed keystream for the obfuscation codec. It is embedded in
// source on purpose: the codec is deterrence against secret-literal scanners
// in version control, NOT a security boundary. Anyone holding this code can
// reverse the encoding.
var obfKey = []byte("authkit.obf.v1/5f2c9a71e8d04b36")

// Obfuscate encodes a plaintext secret into a reversible token string with
// the "obf1:" prefix. The round trip through Reveal is exact for arbitrary
// byte strings, including empty and non-UTF8 content.
func Obfuscate(plaintext string) string {
	data := []byte(plaintext)
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ obfKey[i%len(obfKey)]
	}
	return obfPrefix + base64.RawURLEncoding.EncodeToString(out)
}

// Reveal decodes a token produced by Obfuscate back to the original
// plaintext.
func Reveal(encoded string) (string, error) {
	payload, ok := strings.CutPrefix(encoded, obfPrefix)
	if !ok {
		return "", fmt.Errorf("not an obfuscated value: missing %q prefix", obfPrefix)
	}
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("malformed obfuscated value: %w", err)
	}
	for i := range data {
		data[i] ^= obfKey[i%len(obfKey)]
	}
	return string(data), nil
}

// ObfProvider exposes the codec through the Provider interface so
// ${obf:...} references resolve like any other secret reference.
type ObfProvider struct{}

// NewObfProvider creates the codec provider.
func NewObfProvider() *ObfProvider { return &ObfProvider{} }

// CanResolve implements Provider.
func (p *ObfProvider) CanResolve(secretType string) bool { return secretType == TypeObf }

// Resolve implements Provider. The ref name is the full obfuscated token.
func (p *ObfProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	if !p.CanResolve(ref.Type) {
		return "", fmt.Errorf("obf provider cannot resolve secret type: %s", ref.Type)
	}
	name := ref.Name
	if !strings.HasPrefix(name, obfPrefix) {
		name = obfPrefix + name
	}
	return Reveal(name)
}

// Store implements Provider. Obfuscated values are self-contained; there is
// nothing to store.
func (p *ObfProvider) Store(_ context.Context, _ Ref, _ string) error {
	return fmt.Errorf("obf references are self-contained and cannot be stored")
}

// Delete implements Provider.
func (p *ObfProvider) Delete(_ context.Context, _ Ref) error {
	return fmt.Errorf("obf references are self-contained and cannot be deleted")
}

// IsAvailable implements Provider.
func (p *ObfProvider) IsAvailable() bool { return true }
