// Package otp generates the one-time numeric codes used for email verification
// and password reset.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the number of digits in a generated code.
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// Generator draws uniformly distributed codes from crypto/rand.
type Generator struct{}

// NewGenerator returns a code generator.
func NewGenerator() Generator {
	return Generator{}
}

// Generate returns a zero-padded code in the range 000000-999999.
func (Generator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
