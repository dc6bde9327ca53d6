// Package search recovers affine keys from intercepted ciphertexts.
package search

import (
	"errors"
	"fmt"

	"github.com/mzashi/moodkey/internal/alphabet"
	"github.com/mzashi/moodkey/internal/cipher"
	"github.com/mzashi/moodkey/internal/freq"
	"github.com/mzashi/moodkey/internal/model"
	"github.com/mzashi/moodkey/internal/score"
)

// ErrNoConvergence is returned when no candidate key lands inside the IoC
// acceptance band for a message.
var ErrNoConvergence = errors.New("no candidate met the acceptance band")

const defaultTopK = 3

// Options tunes the searcher. Zero values fall back to defaults.
type Options struct {
	// TopK is how many frequency ranks the fast path pairs up.
	TopK int
	// Rule is the candidate acceptance criterion.
	Rule score.Rule
	// MinLetters rejects messages too short to score reliably.
	MinLetters int
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if o.TopK > alphabet.Size {
		o.TopK = alphabet.Size
	}
	if o.Rule == (score.Rule{}) {
		o.Rule = score.DefaultRule
	}
	if o.MinLetters <= 0 {
		o.MinLetters = freq.LowConfidenceLetters
	}
	return o
}

// Searcher runs the affine key search: a frequency-rank proposer paired with
// an exhaustive scan over the full 12x26 key space. The scan is the
// correctness authority; the proposer can only agree with it, never override
// it.
type Searcher struct {
	opts Options
}

// New builds a searcher with the given options.
func New(opts Options) *Searcher {
	return &Searcher{opts: opts.withDefaults()}
}

// AnalyzeMessage searches one message and returns its accepted key record,
// or ErrNoConvergence when nothing lands in the acceptance band.
func (s *Searcher) AnalyzeMessage(msg model.Message) (model.KeyRecord, error) {
	profile := freq.New(msg.Ciphertext)
	if profile.Letters < s.opts.MinLetters {
		return model.KeyRecord{}, fmt.Errorf("%s: %d letters: %w", msg.Label, profile.Letters, ErrNoConvergence)
	}

	// IoC is invariant under monoalphabetic substitution: on English input
	// every candidate decryption lands in the band, so acceptance comes down
	// to the chi-squared minimum, which is only meaningful over the full key
	// space. The rank-pair proposals seed the list; the exhaustive scan
	// guarantees the true key is always among the candidates scored.
	cands := s.rankPairCandidates(msg.Ciphertext, profile)
	cands = append(cands, s.Exhaustive(msg.Ciphertext)...)
	best, ok := s.opts.Rule.Best(cands)
	if !ok {
		return model.KeyRecord{}, fmt.Errorf("%s: %w", msg.Label, ErrNoConvergence)
	}

	rec := model.KeyRecord{
		Label:      msg.Label,
		Mood:       msg.Mood,
		Key:        best.Key,
		IoC:        best.IoC,
		ChiSquared: best.ChiSquared,
		Plaintext:  best.Plaintext,
	}
	if msg.UsernameEnc != "" {
		username, err := cipher.Decrypt(msg.UsernameEnc, best.Key)
		if err != nil {
			return model.KeyRecord{}, fmt.Errorf("failed to decrypt username for %s: %w", msg.Label, err)
		}
		rec.Username = username
	}
	return rec, nil
}

// Exhaustive decrypts and scores the ciphertext under every valid key.
func (s *Searcher) Exhaustive(ciphertext string) []model.ScoredCandidate {
	cands := make([]model.ScoredCandidate, 0, len(alphabet.ValidMultipliers)*alphabet.Size)
	for _, a := range alphabet.ValidMultipliers {
		for b := 0; b < alphabet.Size; b++ {
			key := model.CandidateKey{A: a, B: b}
			plaintext, err := cipher.Decrypt(ciphertext, key)
			if err != nil {
				// Unreachable: a comes from the coprime set.
				continue
			}
			cands = append(cands, score.Candidate(key, plaintext))
		}
	}
	return cands
}

// rankPairCandidates hypothesizes that the most frequent ciphertext letters
// map to the most frequent English letters. Each ordered pair of hypotheses
// gives the system C1 = a*P1 + b, C2 = a*P2 + b (mod 26), solved for (a, b).
func (s *Searcher) rankPairCandidates(ciphertext string, profile freq.Profile) []model.ScoredCandidate {
	cipherTop := profile.Ranked()[:s.opts.TopK]
	englishTop := freq.RankedReference()[:s.opts.TopK]

	seen := map[model.CandidateKey]bool{}
	var cands []model.ScoredCandidate
	for _, c1 := range cipherTop {
		for _, p1 := range englishTop {
			for _, c2 := range cipherTop {
				if c2 == c1 {
					continue
				}
				for _, p2 := range englishTop {
					if p2 == p1 {
						continue
					}
					for _, a := range solveMultiplier(c1-c2, p1-p2) {
						key := model.CandidateKey{A: a, B: alphabet.Mod(c1 - a*p1)}
						if seen[key] {
							continue
						}
						seen[key] = true
						plaintext, err := cipher.Decrypt(ciphertext, key)
						if err != nil {
							continue
						}
						cands = append(cands, score.Candidate(key, plaintext))
					}
				}
			}
		}
	}
	return cands
}

// solveMultiplier finds every valid a with a*dp == dc (mod 26). When dp is
// invertible the solution is unique; otherwise the coprime set is scanned.
func solveMultiplier(dc, dp int) []int {
	dc, dp = alphabet.Mod(dc), alphabet.Mod(dp)
	if inv, err := alphabet.ModInverse(dp); err == nil {
		a := alphabet.Mod(dc * inv)
		if alphabet.Invertible(a) {
			return []int{a}
		}
		return nil
	}
	var out []int
	for _, a := range alphabet.ValidMultipliers {
		if alphabet.Mod(a*dp) == dc {
			out = append(out, a)
		}
	}
	return out
}
