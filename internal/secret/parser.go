package secret

import (
	"fmt"
	"regexp"
	"strings"
)

// refPattern matches ${type:name} references. The name part may itself
// contain colons (obfuscated payloads do).
var refPattern = regexp.MustCompile(`^\$\{([a-z]+):(.+)\}$`)

// IsSecretRef reports whether a config value is a secret reference rather
// than a literal. Bare "obf1:..." values count: they are the output of
// `authkit secrets obfuscate` pasted straight into config.
func IsSecretRef(value string) bool {
	if strings.HasPrefix(value, obfPrefix) {
		return true
	}
	return refPattern.MatchString(value)
}

// ParseRef parses a secret reference into its type and name.
func ParseRef(value string) (Ref, error) {
	if strings.HasPrefix(value, obfPrefix) {
		return Ref{Type: TypeObf, Name: value, Original: value}, nil
	}

	m := refPattern.FindStringSubmatch(value)
	if m == nil {
		return Ref{}, fmt.Errorf("not a secret reference: expected ${type:name}")
	}

	refType, name := m[1], m[2]
	switch refType {
	case TypeEnv, TypeKeyring, TypeObf:
	default:
		return Ref{}, fmt.Errorf("unknown secret reference type: %s", refType)
	}
	if name == "" {
		return Ref{}, fmt.Errorf("secret reference has an empty name")
	}

	return Ref{Type: refType, Name: name, Original: value}, nil
}
