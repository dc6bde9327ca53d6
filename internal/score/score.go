// Package score rates candidate plaintexts for English likeness.
package score

import (
	"github.com/mzashi/moodkey/internal/alphabet"
	"github.com/mzashi/moodkey/internal/freq"
	"github.com/mzashi/moodkey/internal/model"
)

// English prose clusters inside this Index of Coincidence band; random or
// wrongly decrypted text sits near 1/26.
const (
	DefaultIoCMin = 0.060
	DefaultIoCMax = 0.075
)

// Rule is the candidate acceptance criterion.
type Rule struct {
	IoCMin float64
	IoCMax float64
}

// DefaultRule accepts the standard English IoC band.
var DefaultRule = Rule{IoCMin: DefaultIoCMin, IoCMax: DefaultIoCMax}

// IndexOfCoincidence computes sum(fi*(fi-1)) / (N*(N-1)) over the profile's
// raw counts. Profiles with fewer than two letters score zero.
func IndexOfCoincidence(p freq.Profile) float64 {
	n := p.Letters
	if n <= 1 {
		return 0
	}
	var sum float64
	for _, f := range p.Counts {
		sum += float64(f) * float64(f-1)
	}
	return sum / (float64(n) * float64(n-1))
}

// ChiSquared computes the distance between the profile and the English
// reference table scaled to the same letter total. Lower is better. An empty
// profile scores zero; callers are expected to reject it via the IoC band.
func ChiSquared(p freq.Profile) float64 {
	if p.Letters == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < alphabet.Size; i++ {
		expected := freq.Reference[i] * float64(p.Letters)
		diff := float64(p.Counts[i]) - expected
		sum += diff * diff / expected
	}
	return sum
}

// Candidate scores a decryption produced by key.
func Candidate(key model.CandidateKey, plaintext string) model.ScoredCandidate {
	p := freq.New(plaintext)
	return model.ScoredCandidate{
		Key:        key,
		Plaintext:  plaintext,
		IoC:        IndexOfCoincidence(p),
		ChiSquared: ChiSquared(p),
	}
}

// InBand reports whether ioc falls inside the acceptance band.
func (r Rule) InBand(ioc float64) bool {
	return ioc >= r.IoCMin && ioc <= r.IoCMax
}

// Best returns the accepted candidate: IoC inside the band and minimum
// chi-squared, ties broken by lower b then lower a. ok is false when no
// candidate lands in the band.
func (r Rule) Best(cands []model.ScoredCandidate) (model.ScoredCandidate, bool) {
	var best model.ScoredCandidate
	found := false
	for _, c := range cands {
		if !r.InBand(c.IoC) {
			continue
		}
		if !found || c.Better(best) {
			best = c
			found = true
		}
	}
	return best, found
}
