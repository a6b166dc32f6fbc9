package oauth

// maskSecret masks a sensitive value by showing the first 3 and last 4
// characters. Values shorter than 9 characters are fully masked.
//
// Used for client IDs and secrets in logs and command output. Access and
// refresh tokens are never logged at all, not even masked.
func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:3] + "***" + secret[len(secret)-4:]
}
