// Package auth provides owner tokens for durable polls: a random bearer
// token issued at creation and an HMAC signature scheme for verifying poll
// ownership without storing anything beyond the token itself.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidToken is returned when an owner token fails verification.
var ErrInvalidToken = errors.New("auth: invalid owner token")

// GenerateOwnerToken creates a random URL-safe token for a poll owner.
func GenerateOwnerToken() (string, error) {
	b := make([]byte, 24) // 192 bits of entropy
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generating owner token: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// VerifyOwnerToken compares a presented token against the stored one in
// constant time.
func VerifyOwnerToken(stored, presented string) error {
	if stored == "" || !hmac.Equal([]byte(stored), []byte(presented)) {
		return ErrInvalidToken
	}
	return nil
}

// SignCode creates a deterministic, verifiable signature binding a poll code
// to the server's salt. Owner-only CLI paths present it back with the code.
func SignCode(code, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(code))
	sum := h.Sum(nil)
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// VerifyCode checks a signature produced by SignCode.
func VerifyCode(code, signature, salt string) error {
	expected := SignCode(code, salt)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidToken
	}
	return nil
}
