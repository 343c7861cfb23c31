// Package auth provides credential hashing, API key generation, and
// request identity propagation.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// API keys are 32 bytes from a CSPRNG, hex encoded: 64 lowercase hex chars,
// 256 bits of entropy. Entropy is the uniqueness guarantee; there is no
// collision retry on insert.
const (
	keyRandomBytes = 32
	// KeyLen is the length of an encoded API key.
	KeyLen = keyRandomBytes * 2
)

// HeaderAPIKey is the request header carrying the API key.
const HeaderAPIKey = "X-API-Key"

var keyFormatRegex = regexp.MustCompile(`^[a-f0-9]{64}$`)

// GenerateKey creates a new API key token.
func GenerateKey() (string, error) {
	buf := make([]byte, keyRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidKeyFormat reports whether key has the shape of an issued token.
// Used to short-circuit database lookups for garbage input.
func ValidKeyFormat(key string) bool {
	return keyFormatRegex.MatchString(key)
}
