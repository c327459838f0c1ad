package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// NormalizeEmail trims surrounding whitespace and lower-cases the address
// so lookups are insensitive to how the user typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashEmail returns the base64-encoded SHA-256 digest of a normalized
// e-mail address. The digest serves as the unique account index, keeping
// the plaintext address out of the store's index.
func HashEmail(normalized string) string {
	digest := sha256.Sum256([]byte(normalized))
	return base64.StdEncoding.EncodeToString(digest[:])
}
