// Package alphabet models the 26-letter alphabet and arithmetic mod 26.
package alphabet

import (
	"errors"
	"fmt"
)

// Size is the alphabet length and the cipher modulus.
const Size = 26

var (
	// ErrInvalidCharacter is returned when a non-alphabetic rune reaches a
	// function that expects pre-filtered letters.
	ErrInvalidCharacter = errors.New("character outside the alphabet")

	// ErrNotInvertible is returned when a value shares a factor with 26.
	ErrNotInvertible = errors.New("value has no inverse mod 26")
)

// ValidMultipliers holds the multiplicative keys invertible mod 26, ascending.
var ValidMultipliers = coprimeMultipliers()

func coprimeMultipliers() []int {
	out := make([]int, 0, 12)
	for a := 1; a < Size; a++ {
		if gcd(a, Size) == 1 {
			out = append(out, a)
		}
	}
	return out
}

// LetterToIndex maps an ASCII letter to [0, 25], case-insensitive.
func LetterToIndex(r rune) (int, error) {
	switch {
	case r >= 'A' && r <= 'Z':
		return int(r - 'A'), nil
	case r >= 'a' && r <= 'z':
		return int(r - 'a'), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCharacter, r)
}

// IndexToLetter maps an index to its uppercase letter, normalizing mod 26.
func IndexToLetter(i int) rune {
	return rune('A' + Mod(i))
}

// ModInverse returns x in [0, 25] with (a*x) mod 26 == 1, computed via the
// extended Euclidean algorithm.
func ModInverse(a int) (int, error) {
	a = Mod(a)
	r0, r1 := a, Size
	s0, s1 := 1, 0
	for r1 != 0 {
		q := r0 / r1
		r0, r1 = r1, r0-q*r1
		s0, s1 = s1, s0-q*s1
	}
	if r0 != 1 {
		return 0, fmt.Errorf("%w: %d", ErrNotInvertible, a)
	}
	return Mod(s0), nil
}

// Invertible reports whether a is coprime with 26.
func Invertible(a int) bool {
	return gcd(Mod(a), Size) == 1
}

// Mod normalizes v into [0, 25].
func Mod(v int) int {
	v %= Size
	if v < 0 {
		v += Size
	}
	return v
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
