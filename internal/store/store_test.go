package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mzashi/moodkey/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "moodkey.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestKeyRecordRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	mood := 3
	recs := []model.KeyRecord{
		{
			Label:      "message-1",
			Mood:       &mood,
			Key:        model.CandidateKey{A: 7, B: 6},
			IoC:        0.0651,
			ChiSquared: 46.8,
			Plaintext:  "its wonderful that youve taken",
			Username:   "nightowl",
		},
		{
			Label:     "message-2",
			Key:       model.CandidateKey{A: 11, B: 10},
			IoC:       0.0632,
			Plaintext: "meet me at the old harbor",
		},
	}
	if err := st.InsertKeyRecords(ctx, recs); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := st.ListKeyRecords(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Label != "message-1" || got[0].Key != recs[0].Key {
		t.Fatalf("unexpected first record: %+v", got[0])
	}
	if got[0].Mood == nil || *got[0].Mood != 3 {
		t.Fatalf("expected mood 3, got %v", got[0].Mood)
	}
	if got[0].Username != "nightowl" {
		t.Fatalf("unexpected username: %q", got[0].Username)
	}
	if got[1].Mood != nil {
		t.Fatalf("expected absent mood, got %v", *got[1].Mood)
	}
}

func TestFormulaRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.LatestFormula(ctx); !errors.Is(err, ErrNoFormula) {
		t.Fatalf("expected ErrNoFormula, got %v", err)
	}

	first := model.KeyFormula{MA: 1, CA: 1, MB: 1, CB: 1}
	second := model.KeyFormula{MA: 2, CA: 1, MB: 2, CB: 0}
	if err := st.InsertFormula(ctx, first, 2); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if err := st.InsertFormula(ctx, second, 4); err != nil {
		t.Fatalf("insert second: %v", err)
	}

	got, err := st.LatestFormula(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got != second {
		t.Fatalf("latest formula %+v, want %+v", got, second)
	}
}
