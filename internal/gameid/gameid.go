// Package gameid generates the short codes that name rooms and the games
// they host. Codes are easy to read aloud and type on a phone.
package gameid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Crockford's base32 alphabet, lower case: no i, l, o or u.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in a code.
const Length = 8

// RandSource interface for dependency injection of randomness
type RandSource interface {
	IntN(n int) int
}

// Generator produces room codes.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil source uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a code using crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a code using the generator's source.
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(Length)
	for range Length {
		b.WriteByte(alphabet[g.intN(len(alphabet))])
	}
	return b.String()
}

func (g *Generator) intN(n int) int {
	if g.randSource != nil {
		return g.randSource.IntN(n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	return int(v.Int64())
}

// Normalize lower-cases a code typed by a person and maps the letters
// Crockford's alphabet leaves out to the digits they resemble.
func Normalize(id string) string {
	return strings.NewReplacer("i", "1", "l", "1", "o", "0").Replace(strings.ToLower(strings.TrimSpace(id)))
}

// Validate checks that id is a well-formed code.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("room code must be exactly %d characters, got %d", Length, len(id))
	}
	for i, char := range id {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}
