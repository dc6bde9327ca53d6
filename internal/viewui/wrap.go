package viewui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText soft-wraps words to the given display width. Words wider than a
// full line are split hard.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineWidth = 0
	}
	for _, word := range strings.Fields(text) {
		wordWidth := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+wordWidth > width {
			flush()
		}
		if wordWidth > width {
			for _, r := range word {
				rw := runewidth.RuneWidth(r)
				if lineWidth+rw > width {
					flush()
				}
				line.WriteRune(r)
				lineWidth += rw
			}
			continue
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += wordWidth
	}
	if lineWidth > 0 {
		flush()
	}
	return strings.Join(lines, "\n")
}
