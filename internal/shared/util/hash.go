package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short, stable, log-safe identifier for a secret such as an API key.
// The empty string maps to "".
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:12]
}
