package wgkey

import (
	"encoding/base64"
	"strings"
	"testing"
)

// TestGenerateKeyPairAndDerive verifies generated keys are valid, decode to 32 bytes,
// and that DerivePublicKey(private) equals the generated public key.
func TestGenerateKeyPairAndDerive(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}
	if !IsValidKey(kp.PrivateKey) {
		t.Fatalf("generated private key is invalid")
	}
	if !IsValidKey(kp.PublicKey) {
		t.Fatalf("generated public key is invalid")
	}

	derivedPub, err := DerivePublicKey(kp.PrivateKey)
	if err != nil {
		t.Fatalf("DerivePublicKey error: %v", err)
	}
	if derivedPub != kp.PublicKey {
		t.Fatalf("derived public key does not match generated public key")
	}

	privBytes, err := base64.StdEncoding.DecodeString(kp.PrivateKey)
	if err != nil || len(privBytes) != 32 {
		t.Fatalf("private key decode length unexpected: %v, len=%d", err, len(privBytes))
	}
}

// TestGenerateKeyPair_Clamping checks the generated private key carries the
// WireGuard clamping bits.
func TestGenerateKeyPair_Clamping(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(kp.PrivateKey)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if raw[0]&7 != 0 {
		t.Errorf("lowest 3 bits not cleared: %08b", raw[0])
	}
	if raw[31]&128 != 0 {
		t.Errorf("highest bit not cleared: %08b", raw[31])
	}
	if raw[31]&64 == 0 {
		t.Errorf("second-highest bit not set: %08b", raw[31])
	}
}

// TestDerivePublicKey_Errors checks invalid base64 and incorrect-length inputs produce errors.
func TestDerivePublicKey_Errors(t *testing.T) {
	if _, err := DerivePublicKey("not-base64!!"); err == nil {
		t.Fatalf("expected error for invalid base64 input")
	}

	shortBase64 := base64.StdEncoding.EncodeToString(make([]byte, 31))
	if _, err := DerivePublicKey(shortBase64); err == nil {
		t.Fatalf("expected error for private key with incorrect length")
	}
}

// TestIsValidKey_Cases verifies various valid and invalid inputs.
func TestIsValidKey_Cases(t *testing.T) {
	if IsValidKey("short") {
		t.Fatalf("expected 'short' to be invalid")
	}

	if IsValidKey(strings.Repeat("!", 44)) {
		t.Fatalf("expected non-base64 characters to be invalid")
	}

	// 44 chars of base64 that decode to 33 bytes cannot exist with a single
	// padding char, but a key missing its padding must be rejected.
	if IsValidKey(strings.Repeat("A", 44)) {
		t.Fatalf("expected unpadded 44-char string to be invalid")
	}

	valid := base64.StdEncoding.EncodeToString(make([]byte, 32))
	if !IsValidKey(valid) {
		t.Fatalf("expected %q to be valid", valid)
	}
}
