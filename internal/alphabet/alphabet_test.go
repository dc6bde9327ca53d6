package alphabet

import (
	"errors"
	"testing"
)

func TestValidMultipliers(t *testing.T) {
	want := []int{1, 3, 5, 7, 9, 11, 15, 17, 19, 21, 23, 25}
	if len(ValidMultipliers) != len(want) {
		t.Fatalf("expected %d multipliers, got %d", len(want), len(ValidMultipliers))
	}
	for i, a := range want {
		if ValidMultipliers[i] != a {
			t.Fatalf("unexpected multipliers: %v", ValidMultipliers)
		}
	}
}

func TestModInverseRoundTrip(t *testing.T) {
	for _, a := range ValidMultipliers {
		inv, err := ModInverse(a)
		if err != nil {
			t.Fatalf("inverse of %d: %v", a, err)
		}
		if got := Mod(a * inv); got != 1 {
			t.Fatalf("(%d * %d) mod 26 = %d, want 1", a, inv, got)
		}
	}
}

func TestModInverseNotInvertible(t *testing.T) {
	for _, a := range []int{0, 2, 4, 13, 26} {
		if _, err := ModInverse(a); !errors.Is(err, ErrNotInvertible) {
			t.Fatalf("expected ErrNotInvertible for %d, got %v", a, err)
		}
	}
}

func TestLetterToIndex(t *testing.T) {
	cases := []struct {
		r    rune
		want int
	}{
		{'A', 0}, {'a', 0}, {'Z', 25}, {'z', 25}, {'M', 12},
	}
	for _, c := range cases {
		got, err := LetterToIndex(c.r)
		if err != nil {
			t.Fatalf("LetterToIndex(%q): %v", c.r, err)
		}
		if got != c.want {
			t.Fatalf("LetterToIndex(%q) = %d, want %d", c.r, got, c.want)
		}
	}
	for _, r := range []rune{' ', '!', '1', 'é'} {
		if _, err := LetterToIndex(r); !errors.Is(err, ErrInvalidCharacter) {
			t.Fatalf("expected ErrInvalidCharacter for %q, got %v", r, err)
		}
	}
}

func TestMod(t *testing.T) {
	if Mod(-1) != 25 {
		t.Fatalf("Mod(-1) = %d, want 25", Mod(-1))
	}
	if Mod(52) != 0 {
		t.Fatalf("Mod(52) = %d, want 0", Mod(52))
	}
}
