// Package model defines shared data structures.
package model

import "fmt"

// Message is one intercepted record handed to the analysis engine.
// Mood is nil when the capture carried no side-channel value.
type Message struct {
	Label       string
	Ciphertext  string
	Mood        *int
	UsernameEnc string
}

// CandidateKey is an affine key pair. A must be coprime with 26.
type CandidateKey struct {
	A int
	B int
}

func (k CandidateKey) String() string {
	return fmt.Sprintf("(a=%d, b=%d)", k.A, k.B)
}

// ScoredCandidate pairs a candidate key with its decryption and quality metrics.
type ScoredCandidate struct {
	Key        CandidateKey
	Plaintext  string
	IoC        float64
	ChiSquared float64
}

// Score maps chi-squared distance into (0, 1]; higher is better.
func (c ScoredCandidate) Score() float64 {
	return 1 / (1 + c.ChiSquared)
}

// Better reports whether c ranks ahead of other: higher score first,
// ties broken by lower B then lower A.
func (c ScoredCandidate) Better(other ScoredCandidate) bool {
	if c.ChiSquared != other.ChiSquared {
		return c.ChiSquared < other.ChiSquared
	}
	if c.Key.B != other.Key.B {
		return c.Key.B < other.Key.B
	}
	return c.Key.A < other.Key.A
}

// KeyRecord is the verified key for one message.
type KeyRecord struct {
	Label      string
	Mood       *int
	Key        CandidateKey
	IoC        float64
	ChiSquared float64
	Plaintext  string
	Username   string
}

// KeyFormula holds the induced integer coefficients mapping a mood value
// to key parameters: a = MA*mood + CA, b = MB*mood + CB.
type KeyFormula struct {
	MA int
	CA int
	MB int
	CB int
}

func (f KeyFormula) String() string {
	return fmt.Sprintf("a = %d*mood + %d, b = %d*mood + %d", f.MA, f.CA, f.MB, f.CB)
}
