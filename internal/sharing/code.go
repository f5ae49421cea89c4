// Package sharing generates and normalizes sharing codes.
package sharing

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	// Alphabet is the set of characters a sharing code is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// CodeLength is the fixed length of every sharing code.
	CodeLength = 6
)

// Generator produces candidate sharing codes.
type Generator interface {
	Generate() (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate() (string, error) {
	return f()
}

// RandomGenerator draws codes uniformly from Alphabet using crypto/rand.
type RandomGenerator struct{}

// Generate returns a new random code.
func (RandomGenerator) Generate() (string, error) {
	return Generate()
}

// Generate returns a random code of CodeLength characters.
func Generate() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))

	var builder strings.Builder
	builder.Grow(CodeLength)

	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(Alphabet[n.Int64()])
	}

	return builder.String(), nil
}

// Normalize returns the canonical (trimmed, upper-case) form of a code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code, once normalized, has the right length and alphabet.
func Valid(code string) bool {
	code = Normalize(code)
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
