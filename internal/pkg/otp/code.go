package otp

import (
	"crypto/rand"
	"io"
	"math/big"
	"strconv"
)

// CodeLength is the number of digits in an email code.
const CodeLength = 6

const (
	codeMin  = 100000
	codeSpan = 900000
)

// CodeGenerator produces one-time codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// NumericCode generates six-digit codes uniformly in [100000, 999999].
type NumericCode struct {
	reader io.Reader
}

// NewNumericCode returns a generator backed by crypto/rand.
func NewNumericCode() *NumericCode {
	return &NumericCode{reader: rand.Reader}
}

// Generate returns a fresh code.
func (g *NumericCode) Generate() (string, error) {
	n, err := rand.Int(g.reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(codeMin+n.Int64(), 10), nil
}

// IsWellFormedCode reports whether code is exactly six ASCII digits.
func IsWellFormedCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
