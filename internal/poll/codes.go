package poll

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// Defaults for the code generator. Six base32 characters give roughly a
// billion codes, so collisions are vanishingly rare at any realistic number
// of concurrent sessions.
const (
	DefaultCodeLength  = 6
	DefaultCodeRetries = 64
)

// CodeGenerator produces short, human-shareable session codes: fixed-length,
// uppercase alphanumeric (base32 alphabet, A-Z and 2-7). Uniqueness is
// enforced against a caller-supplied predicate with a bounded retry budget;
// exhausting the budget is a configuration error, not something that happens
// with a sane code length.
type CodeGenerator struct {
	length  int
	retries int
}

// NewCodeGenerator creates a generator. Non-positive arguments fall back to
// the defaults.
func NewCodeGenerator(length, retries int) *CodeGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	if retries <= 0 {
		retries = DefaultCodeRetries
	}
	return &CodeGenerator{length: length, retries: retries}
}

// Generate returns a fresh code for which taken(code) is false.
// Returns ErrCodeSpaceExhausted once the retry budget is spent.
// The caller is responsible for holding whatever lock makes the taken
// check and the subsequent insert atomic.
func (g *CodeGenerator) Generate(taken func(string) bool) (string, error) {
	for attempt := 0; attempt < g.retries; attempt++ {
		code, err := g.random()
		if err != nil {
			return "", fmt.Errorf("poll: generating code: %w", err)
		}
		if !taken(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// random produces one candidate code from crypto/rand.
func (g *CodeGenerator) random() (string, error) {
	// base32 encodes 5 bits per character; round the byte count up.
	raw := make([]byte, (g.length*5+7)/8)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return strings.ToUpper(code[:g.length]), nil
}
