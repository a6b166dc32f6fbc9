package secret

// MaskSecretValue masks a secret for display, keeping the first 3 and last
// 4 characters. Short values are fully masked.
func MaskSecretValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:3] + "***" + value[len(value)-4:]
}
