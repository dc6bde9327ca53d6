// Package formula induces and applies the mood-to-key relation.
package formula

import (
	"errors"
	"fmt"

	"github.com/mzashi/moodkey/internal/alphabet"
	"github.com/mzashi/moodkey/internal/cipher"
	"github.com/mzashi/moodkey/internal/model"
)

var (
	// ErrInsufficientData is returned when fewer than two distinct mood
	// values are available to fit a line.
	ErrInsufficientData = errors.New("need key records for at least two distinct moods")

	// ErrFormulaMismatch is returned when the records do not fit a single
	// exact linear relation, falsifying the per-mood key hypothesis.
	ErrFormulaMismatch = errors.New("key records do not fit one linear formula")
)

type point struct {
	x int
	y int
}

// Induce fits exact integer lines a = ma*mood + ca and b = mb*mood + cb over
// every record that carries a mood. The relation is deterministic by
// hypothesis, so this is an exact fit: any deviating record fails the whole
// induction rather than degrading into a best-effort estimate.
func Induce(records []model.KeyRecord) (model.KeyFormula, error) {
	var as, bs []point
	for _, rec := range records {
		if rec.Mood == nil {
			continue
		}
		as = append(as, point{x: *rec.Mood, y: rec.Key.A})
		bs = append(bs, point{x: *rec.Mood, y: rec.Key.B})
	}

	ma, ca, err := fitLine(as)
	if err != nil {
		return model.KeyFormula{}, fmt.Errorf("fitting a: %w", err)
	}
	mb, cb, err := fitLine(bs)
	if err != nil {
		return model.KeyFormula{}, fmt.Errorf("fitting b: %w", err)
	}
	return model.KeyFormula{MA: ma, CA: ca, MB: mb, CB: cb}, nil
}

func fitLine(points []point) (m, c int, err error) {
	if len(points) < 2 {
		return 0, 0, ErrInsufficientData
	}
	base := points[0]
	var other *point
	for i := 1; i < len(points); i++ {
		if points[i].x != base.x {
			other = &points[i]
			break
		}
	}
	if other == nil {
		return 0, 0, ErrInsufficientData
	}

	dy := other.y - base.y
	dx := other.x - base.x
	if dy%dx != 0 {
		return 0, 0, ErrFormulaMismatch
	}
	m = dy / dx
	c = base.y - m*base.x
	for _, p := range points {
		if p.y != m*p.x+c {
			return 0, 0, fmt.Errorf("mood %d: %w", p.x, ErrFormulaMismatch)
		}
	}
	return m, c, nil
}

// Derive computes the key for a mood, normalized mod 26. It fails with
// ErrNotInvertible when the formula lands on a multiplier sharing a factor
// with 26.
func Derive(f model.KeyFormula, mood int) (model.CandidateKey, error) {
	a := alphabet.Mod(f.MA*mood + f.CA)
	if !alphabet.Invertible(a) {
		return model.CandidateKey{}, fmt.Errorf("mood %d derives a=%d: %w", mood, a, alphabet.ErrNotInvertible)
	}
	return model.CandidateKey{A: a, B: alphabet.Mod(f.MB*mood + f.CB)}, nil
}

// UniversalDecrypt derives the key for mood and decrypts ciphertext with it,
// bypassing the search. The formula is trusted once induced; callers wanting
// a sanity check can score the returned plaintext themselves.
func UniversalDecrypt(f model.KeyFormula, mood int, ciphertext string) (string, model.CandidateKey, error) {
	key, err := Derive(f, mood)
	if err != nil {
		return "", model.CandidateKey{}, err
	}
	plaintext, err := cipher.Decrypt(ciphertext, key)
	if err != nil {
		return "", model.CandidateKey{}, err
	}
	return plaintext, key, nil
}
