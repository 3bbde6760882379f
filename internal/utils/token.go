package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"     // secure random number generation
	"crypto/sha256"   // SHA-256 digests of session tokens
	"encoding/base64" // URL-safe token alphabet
	"encoding/hex"    // hex encoding of digests
)

// NewSessionToken returns n bytes of crypto/rand data encoded with the
// unpadded URL-safe base64 alphabet, i.e. ceil(4n/3) characters.
func NewSessionToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the SHA-256 hex digest of a raw session token.  Only
// the digest is stored, so a leaked table cannot be replayed as cookies.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
