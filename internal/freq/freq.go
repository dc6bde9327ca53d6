// Package freq computes letter-frequency profiles over English text.
package freq

import (
	"sort"

	"github.com/mzashi/moodkey/internal/alphabet"
)

// LowConfidenceLetters is the alphabetic length below which statistical
// measures over a profile are unreliable.
const LowConfidenceLetters = 20

// Reference holds standard English letter proportions indexed by letter (A=0).
var Reference = [alphabet.Size]float64{
	0.0817, // A
	0.0129, // B
	0.0278, // C
	0.0425, // D
	0.1270, // E
	0.0223, // F
	0.0202, // G
	0.0609, // H
	0.0697, // I
	0.0015, // J
	0.0077, // K
	0.0403, // L
	0.0241, // M
	0.0675, // N
	0.0751, // O
	0.0193, // P
	0.0010, // Q
	0.0599, // R
	0.0633, // S
	0.0906, // T
	0.0276, // U
	0.0098, // V
	0.0236, // W
	0.0015, // X
	0.0197, // Y
	0.0007, // Z
}

// Profile is the observed letter distribution of one text.
type Profile struct {
	Counts  [alphabet.Size]int
	Letters int
	Props   [alphabet.Size]float64

	// LowConfidence marks profiles over texts too short for the scoring
	// metrics to be trusted.
	LowConfidence bool
}

// New counts case-folded letters of text, ignoring every other rune. A text
// with no letters yields an empty profile, which is a defined state rather
// than an error.
func New(text string) Profile {
	var p Profile
	for _, r := range text {
		idx, err := alphabet.LetterToIndex(r)
		if err != nil {
			continue
		}
		p.Counts[idx]++
		p.Letters++
	}
	if p.Letters > 0 {
		for i, n := range p.Counts {
			p.Props[i] = float64(n) / float64(p.Letters)
		}
	}
	p.LowConfidence = p.Letters < LowConfidenceLetters
	return p
}

// Ranked returns letter indices in descending frequency order, ties broken
// alphabetically.
func (p Profile) Ranked() []int {
	return rank(func(i int) float64 { return float64(p.Counts[i]) })
}

// RankedReference returns reference-table letter indices in descending
// frequency order.
func RankedReference() []int {
	return rank(func(i int) float64 { return Reference[i] })
}

func rank(value func(int) float64) []int {
	out := make([]int, alphabet.Size)
	for i := range out {
		out[i] = i
	}
	sort.Slice(out, func(i, j int) bool {
		vi, vj := value(out[i]), value(out[j])
		if vi == vj {
			return out[i] < out[j]
		}
		return vi > vj
	})
	return out
}
