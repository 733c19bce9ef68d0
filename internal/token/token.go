// Package token generates opaque order access tokens.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// tokenBytes gives 256 bits of entropy, enough that tokens are not guessable
// and collisions are not a practical concern. The database still enforces
// uniqueness.
const tokenBytes = 32

const prefix = "ord_"

// New returns a fresh access token. Tokens are URL-safe so they can be used
// directly as a path segment.
func New() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Valid reports whether s has the shape of a token produced by New. It does
// not look the token up anywhere.
func Valid(s string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	encoded := strings.TrimPrefix(s, prefix)
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	return len(raw) == tokenBytes
}
