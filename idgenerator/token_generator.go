package idgenerator

import (
	"strings"

	"github.com/google/uuid"
)

// TokenGenerator produces opaque, unguessable string tokens backed by random
// (version 4) UUIDs. It is safe for concurrent use.
type TokenGenerator struct {
	prefix string
}

// NewTokenGenerator creates a TokenGenerator. A non-empty prefix is prepended
// to every token, which keeps different token kinds visually distinct in logs.
//
// Parameters:
//   - prefix: Optional prefix such as "g-" for game ids
//
// Returns:
//   - A new TokenGenerator
func NewTokenGenerator(prefix string) *TokenGenerator {
	return &TokenGenerator{prefix: prefix}
}

// Token returns a fresh token. Tokens contain only lower-case hex digits and
// dashes after the prefix, so they are safe to embed in a request path.
func (g *TokenGenerator) Token() string {
	return g.prefix + uuid.NewString()
}

// Owns reports whether token carries this generator's prefix and a
// well-formed UUID body.
func (g *TokenGenerator) Owns(token string) bool {
	body, ok := strings.CutPrefix(token, g.prefix)
	if !ok {
		return false
	}

	_, err := uuid.Parse(body)
	return err == nil
}
