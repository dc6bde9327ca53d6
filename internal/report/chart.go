package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mzashi/moodkey/internal/alphabet"
	"github.com/mzashi/moodkey/internal/freq"
)

const (
	observedBar = '█'
	englishBar  = '░'

	minBarWidth         = 8
	chartFixedWidth     = 11 // letter, percentage, separators
	terminalWidthBackup = 80
)

const sparkChars = " .:-=+*#%@"

// RenderFreqChart prints a per-letter bar chart comparing the observed
// distribution against the English reference, two bars per letter. A
// non-positive totalWidth auto-sizes to the terminal.
func RenderFreqChart(w io.Writer, title string, p freq.Profile, totalWidth int) error {
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	barWidth := (totalWidth - 2*chartFixedWidth) / 2
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	if p.LowConfidence {
		if _, err := fmt.Fprintf(w, "Low confidence: only %d letters.\n", p.Letters); err != nil {
			return err
		}
	}
	legend := fmt.Sprintf("%c observed  %c english", observedBar, englishBar)
	if _, err := fmt.Fprintln(w, legend); err != nil {
		return err
	}

	scale := maxProp(p)
	for i := 0; i < alphabet.Size; i++ {
		line := fmt.Sprintf("%c %5.1f%% %s  %5.1f%% %s",
			alphabet.IndexToLetter(i),
			p.Props[i]*100,
			bar(observedBar, p.Props[i], scale, barWidth),
			freq.Reference[i]*100,
			bar(englishBar, freq.Reference[i], scale, barWidth),
		)
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// Sparkline renders the profile shape as a single line, one cell per letter.
func Sparkline(p freq.Profile) string {
	scale := maxProp(p)
	if scale <= 0 {
		return strings.Repeat(" ", alphabet.Size)
	}
	var b strings.Builder
	for _, v := range p.Props {
		pos := v / scale
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func maxProp(p freq.Profile) float64 {
	scale := 0.0
	for i := 0; i < alphabet.Size; i++ {
		if p.Props[i] > scale {
			scale = p.Props[i]
		}
		if freq.Reference[i] > scale {
			scale = freq.Reference[i]
		}
	}
	return scale
}

func bar(ch rune, value, scale float64, width int) string {
	if scale <= 0 || width <= 0 {
		return ""
	}
	n := int(math.Round(value / scale * float64(width)))
	if n > width {
		n = width
	}
	return strings.Repeat(string(ch), n) + strings.Repeat(" ", width-n)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
