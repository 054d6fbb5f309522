package auth

import (
	"errors"
	"testing"
)

func TestGenerateOwnerToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		token, err := GenerateOwnerToken()
		if err != nil {
			t.Fatalf("GenerateOwnerToken() failed: %v", err)
		}
		if token == "" {
			t.Fatal("Empty token")
		}
		if seen[token] {
			t.Fatalf("Duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestVerifyOwnerToken(t *testing.T) {
	if err := VerifyOwnerToken("secret", "secret"); err != nil {
		t.Errorf("Matching tokens rejected: %v", err)
	}
	if err := VerifyOwnerToken("secret", "wrong"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
	// An empty stored token never verifies
	if err := VerifyOwnerToken("", ""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for empty stored token, got %v", err)
	}
}

func TestSignAndVerifyCode(t *testing.T) {
	sig := SignCode("K7KX2A", "salt-1")

	if err := VerifyCode("K7KX2A", sig, "salt-1"); err != nil {
		t.Errorf("Valid signature rejected: %v", err)
	}
	if err := VerifyCode("K7KX2A", sig, "salt-2"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Signature verified under the wrong salt: %v", err)
	}
	if err := VerifyCode("OTHER1", sig, "salt-1"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Signature verified for the wrong code: %v", err)
	}

	// Deterministic for the same inputs
	if SignCode("K7KX2A", "salt-1") != sig {
		t.Error("SignCode is not deterministic")
	}
}
