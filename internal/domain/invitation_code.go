package domain

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	MinCodeLength       = 8
	MaxCodeLength       = 32
	GeneratedCodeLength = 12

	codeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"
)

var codePattern = regexp.MustCompile(`^[a-z0-9]{8,32}$`)

// NormalizeCode trims and case-folds a submitted invitation code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// IsValidCodeFormat reports whether an already normalized code is in
// canonical form: lowercase alphanumeric, 8 to 32 characters.
func IsValidCodeFormat(code string) bool {
	return codePattern.MatchString(code)
}

// GenerateCode returns a random canonical code. Ambiguous glyphs (0/o, 1/l/i)
// are left out of the alphabet since guests type these from printed cards.
func GenerateCode() (string, error) {
	var b strings.Builder
	b.Grow(GeneratedCodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < GeneratedCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
