package fingerprint

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf16"
)

const (
	componentDelimiter = "|"
	suffixLength       = 13
	base36Alphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Hash is the rolling multiplicative hash over the UTF-16 code units of s:
// seed 0, hash = hash*31 + unit, wrapped to signed 32 bits after each step.
func Hash(s string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(unit)
	}
	return h
}

// Compose renders the hash part of a fingerprint for the given components.
func Compose(components []string) string {
	h := int64(Hash(strings.Join(components, componentDelimiter)))
	if h < 0 {
		h = -h
	}
	return strconv.FormatInt(h, 36)
}

func randomSuffix() (string, error) {
	var b strings.Builder
	b.Grow(suffixLength)

	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < suffixLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36Alphabet[n.Int64()])
	}
	return b.String(), nil
}
