package search

import (
	"errors"
	"strings"
	"testing"

	"github.com/mzashi/moodkey/internal/alphabet"
	"github.com/mzashi/moodkey/internal/cipher"
	"github.com/mzashi/moodkey/internal/freq"
	"github.com/mzashi/moodkey/internal/model"
	"github.com/mzashi/moodkey/internal/score"
)

const englishSample = "the quick brown fox jumps over the lazy dog while the old clock " +
	"on the mantel strikes twelve and the tired watchman makes his final round through " +
	"the quiet streets of the sleeping town where every window is dark and every door " +
	"is locked against the cold night air that settles over the rooftops like a heavy " +
	"blanket of silence"

// skewedSample is natural English (IoC about 0.0687) whose top-3 letters are
// s, e, o, so the top-3 rank pairs never hypothesize the true key.
const skewedSample = "corridors of our school smelled of chalk ink floor polish lessons " +
	"drifted by in low murmurs boys swapped pencils conkers rude drawings girls passed " +
	"folded messages under desks when bells rung everyone surged outside in one loud " +
	"river of shoes"

func encryptSample(t *testing.T, key model.CandidateKey) string {
	t.Helper()
	ct, err := cipher.Encrypt(englishSample, key)
	if err != nil {
		t.Fatalf("encrypt %v: %v", key, err)
	}
	return ct
}

func TestAnalyzeMessageRecoversKeys(t *testing.T) {
	s := New(Options{})
	moods := map[int]model.CandidateKey{
		3:  {A: 7, B: 6},
		5:  {A: 11, B: 10},
		7:  {A: 15, B: 14},
		10: {A: 21, B: 20},
	}
	for mood, key := range moods {
		mood := mood
		msg := model.Message{
			Label:      "intercept",
			Ciphertext: encryptSample(t, key),
			Mood:       &mood,
		}
		rec, err := s.AnalyzeMessage(msg)
		if err != nil {
			t.Fatalf("mood %d: %v", mood, err)
		}
		if rec.Key != key {
			t.Fatalf("mood %d: recovered %v, want %v", mood, rec.Key, key)
		}
		if !score.DefaultRule.InBand(rec.IoC) {
			t.Fatalf("mood %d: accepted IoC %v outside band", mood, rec.IoC)
		}
		if !strings.HasPrefix(rec.Plaintext, "the quick brown fox") {
			t.Fatalf("mood %d: unexpected plaintext %q", mood, rec.Plaintext[:40])
		}
	}
}

func TestFastPathAgreesWithExhaustive(t *testing.T) {
	s := New(Options{})
	key := model.CandidateKey{A: 7, B: 6}
	ct := encryptSample(t, key)

	fast, ok := score.DefaultRule.Best(s.rankPairCandidates(ct, freq.New(ct)))
	if !ok {
		t.Fatalf("fast path did not converge")
	}
	full, ok := score.DefaultRule.Best(s.Exhaustive(ct))
	if !ok {
		t.Fatalf("exhaustive search did not converge")
	}
	if fast.Key != full.Key {
		t.Fatalf("fast path %v disagrees with exhaustive %v", fast.Key, full.Key)
	}
	if full.ChiSquared > fast.ChiSquared {
		t.Fatalf("exhaustive score %v must be at least as good as fast path %v",
			full.ChiSquared, fast.ChiSquared)
	}
}

// Every decryption of English ciphertext keeps its IoC, so the band cannot
// reject a wrong rank-pair candidate; only the exhaustive scan can.
func TestAnalyzeMessageOverridesMisledRankPairs(t *testing.T) {
	s := New(Options{})
	key := model.CandidateKey{A: 7, B: 6}
	ct, err := cipher.Encrypt(skewedSample, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	fast, ok := score.DefaultRule.Best(s.rankPairCandidates(ct, freq.New(ct)))
	if !ok {
		t.Fatalf("expected an in-band rank-pair candidate")
	}
	if fast.Key == key {
		t.Fatalf("rank pairs unexpectedly proposed the true key %v", key)
	}

	rec, err := s.AnalyzeMessage(model.Message{Label: "skewed", Ciphertext: ct})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Key != key {
		t.Fatalf("accepted %v, want %v", rec.Key, key)
	}
	full, ok := score.DefaultRule.Best(s.Exhaustive(ct))
	if !ok || rec.Key != full.Key {
		t.Fatalf("accepted %v disagrees with exhaustive best %v", rec.Key, full.Key)
	}
	if !strings.HasPrefix(rec.Plaintext, "corridors of our school") {
		t.Fatalf("unexpected plaintext %q", rec.Plaintext[:40])
	}
}

func TestOptionsClampTopK(t *testing.T) {
	s := New(Options{TopK: 100})
	if s.opts.TopK != alphabet.Size {
		t.Fatalf("TopK = %d, want %d", s.opts.TopK, alphabet.Size)
	}
	key := model.CandidateKey{A: 7, B: 6}
	rec, err := s.AnalyzeMessage(model.Message{Label: "m1", Ciphertext: encryptSample(t, key)})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Key != key {
		t.Fatalf("recovered %v, want %v", rec.Key, key)
	}
}

func TestExhaustiveNeverEmitsInvalidMultiplier(t *testing.T) {
	s := New(Options{})
	for _, c := range s.Exhaustive("SOME SHORT TEXT") {
		switch c.Key.A {
		case 1, 3, 5, 7, 9, 11, 15, 17, 19, 21, 23, 25:
		default:
			t.Fatalf("invalid multiplier emitted: %v", c.Key)
		}
	}
}

func TestAnalyzeMessageShortCiphertext(t *testing.T) {
	s := New(Options{})
	_, err := s.AnalyzeMessage(model.Message{Label: "short", Ciphertext: "XQZJM KVW"})
	if !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("expected ErrNoConvergence, got %v", err)
	}
}

func TestAnalyzeMessageNonEnglish(t *testing.T) {
	s := New(Options{})
	// Uniform letter distribution: IoC about 0.029, far below the band.
	msg := model.Message{Label: "noise", Ciphertext: strings.Repeat("ABCDEFGHIJKLMNOPQRSTUVWXYZ", 4)}
	_, err := s.AnalyzeMessage(msg)
	if !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("expected ErrNoConvergence, got %v", err)
	}
}

func TestAnalyzeMessageDecryptsUsername(t *testing.T) {
	s := New(Options{})
	key := model.CandidateKey{A: 11, B: 10}
	username, err := cipher.Encrypt("nightowl", key)
	if err != nil {
		t.Fatalf("encrypt username: %v", err)
	}
	rec, err := s.AnalyzeMessage(model.Message{
		Label:       "m1",
		Ciphertext:  encryptSample(t, key),
		UsernameEnc: username,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Username != "nightowl" {
		t.Fatalf("username = %q, want nightowl", rec.Username)
	}
}

func TestAnalyzeBatch(t *testing.T) {
	s := New(Options{})
	keys := []model.CandidateKey{{A: 7, B: 6}, {A: 11, B: 10}, {A: 15, B: 14}, {A: 21, B: 20}}
	msgs := make([]model.Message, 0, len(keys)+1)
	for i, key := range keys {
		mood := (key.A - 1) / 2
		msgs = append(msgs, model.Message{
			Label:      "m" + string(rune('1'+i)),
			Ciphertext: encryptSample(t, key),
			Mood:       &mood,
		})
	}
	msgs = append(msgs, model.Message{Label: "bad", Ciphertext: "ZZZ"})

	results := s.AnalyzeBatch(msgs, 3)
	if len(results) != len(msgs) {
		t.Fatalf("expected %d results, got %d", len(msgs), len(results))
	}
	for i, key := range keys {
		if results[i].Err != nil {
			t.Fatalf("message %d: %v", i, results[i].Err)
		}
		if results[i].Record.Key != key {
			t.Fatalf("message %d: recovered %v, want %v", i, results[i].Record.Key, key)
		}
	}
	if !errors.Is(results[len(results)-1].Err, ErrNoConvergence) {
		t.Fatalf("expected trailing failure, got %v", results[len(results)-1].Err)
	}
	if recs := Records(results); len(recs) != len(keys) {
		t.Fatalf("expected %d accepted records, got %d", len(keys), len(recs))
	}
}
