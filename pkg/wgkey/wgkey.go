// Package wgkey implements WireGuard Curve25519 key handling: generation,
// public key derivation and validation of the base64 wire format.
package wgkey

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"

	"golang.org/x/crypto/curve25519"
)

// KeyPair represents a WireGuard key pair (private and public keys).
type KeyPair struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// keyPattern matches a 32-byte key in base64: 43 base64 characters plus padding.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9+/]{43}=$`)

// GenerateKeyPair generates a new WireGuard key pair using native crypto.
func GenerateKeyPair() (*KeyPair, error) {
	privateKeyBytes := make([]byte, 32)
	if _, err := rand.Read(privateKeyBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes for private key: %w", err)
	}

	// Clamp the key for use with curve25519.
	clampPrivateKey(privateKeyBytes)

	publicKeyBytes, err := curve25519.X25519(privateKeyBytes, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("failed to generate public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: base64.StdEncoding.EncodeToString(privateKeyBytes),
		PublicKey:  base64.StdEncoding.EncodeToString(publicKeyBytes),
	}, nil
}

// DerivePublicKey derives a public key from a given private key.
func DerivePublicKey(privateKey string) (string, error) {
	privateKeyBytes, err := base64.StdEncoding.DecodeString(privateKey)
	if err != nil {
		return "", fmt.Errorf("private key is not valid base64: %w", err)
	}
	if len(privateKeyBytes) != 32 {
		return "", fmt.Errorf("private key has incorrect length: expected 32 bytes")
	}

	// Clamp before deriving so unclamped inputs still map to the key
	// WireGuard would actually use.
	clampPrivateKey(privateKeyBytes)

	publicKeyBytes, err := curve25519.X25519(privateKeyBytes, curve25519.Basepoint)
	if err != nil {
		return "", fmt.Errorf("failed to derive public key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(publicKeyBytes), nil
}

// clampPrivateKey applies the clamping function as specified by WireGuard:
// clear the lowest 3 bits, clear the highest bit, set the second-highest bit.
func clampPrivateKey(key []byte) {
	key[0] &= 248
	key[31] &= 127
	key[31] |= 64
}

// IsValidKey reports whether s looks like a WireGuard key: 44 characters of
// standard base64 that decode to exactly 32 bytes.
func IsValidKey(s string) bool {
	if !keyPattern.MatchString(s) {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}
