// Package cipher implements the affine substitution primitive.
package cipher

import (
	"strings"
	"unicode"

	"github.com/mzashi/moodkey/internal/alphabet"
	"github.com/mzashi/moodkey/internal/model"
)

// Decrypt applies P = a^(-1)*(C - b) mod 26 to every letter of ciphertext.
// Non-alphabetic runes pass through unchanged and letter case is preserved.
func Decrypt(ciphertext string, key model.CandidateKey) (string, error) {
	inv, err := alphabet.ModInverse(key.A)
	if err != nil {
		return "", err
	}
	return substitute(ciphertext, func(c int) int {
		return alphabet.Mod(inv * (c - key.B))
	}), nil
}

// Encrypt applies C = (a*P + b) mod 26 to every letter of plaintext.
// Non-alphabetic runes pass through unchanged and letter case is preserved.
func Encrypt(plaintext string, key model.CandidateKey) (string, error) {
	if !alphabet.Invertible(key.A) {
		_, err := alphabet.ModInverse(key.A)
		return "", err
	}
	return substitute(plaintext, func(p int) int {
		return alphabet.Mod(key.A*p + key.B)
	}), nil
}

func substitute(text string, mapIndex func(int) int) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		idx, err := alphabet.LetterToIndex(r)
		if err != nil {
			b.WriteRune(r)
			continue
		}
		out := alphabet.IndexToLetter(mapIndex(idx))
		if unicode.IsLower(r) {
			out = unicode.ToLower(out)
		}
		b.WriteRune(out)
	}
	return b.String()
}
