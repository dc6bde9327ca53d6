package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"

	"github.com/mzashi/moodkey/internal/model"
	"github.com/mzashi/moodkey/internal/search"
)

const previewWidth = 36

// RenderKeyTable prints one row per analyzed message: the accepted key and
// its metrics, or the failure reason.
func RenderKeyTable(w io.Writer, results []search.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No messages analyzed.")
		return err
	}
	headers := []string{"Message", "Mood", "a", "b", "IoC", "Chi2", "Plaintext"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		label := r.Message.Label
		mood := "-"
		if r.Message.Mood != nil {
			mood = strconv.Itoa(*r.Message.Mood)
		}
		if r.Err != nil {
			rows = append(rows, []string{label, mood, "-", "-", "-", "-", "no convergence"})
			continue
		}
		rows = append(rows, []string{
			label,
			mood,
			strconv.Itoa(r.Record.Key.A),
			strconv.Itoa(r.Record.Key.B),
			fmt.Sprintf("%.4f", r.Record.IoC),
			fmt.Sprintf("%.1f", r.Record.ChiSquared),
			runewidth.Truncate(r.Record.Plaintext, previewWidth, "..."),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary prints batch totals and the induced formula, when one exists.
func RenderSummary(w io.Writer, results []search.Result, f *model.KeyFormula) error {
	accepted := 0
	for _, r := range results {
		if r.Err == nil {
			accepted++
		}
	}
	if _, err := fmt.Fprintf(w, "Messages: %d\n", len(results)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Keys recovered: %d\n", accepted); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "No convergence: %d\n", len(results)-accepted); err != nil {
		return err
	}
	if f != nil {
		if _, err := fmt.Fprintf(w, "Formula: %s\n", f); err != nil {
			return err
		}
	}
	return nil
}
