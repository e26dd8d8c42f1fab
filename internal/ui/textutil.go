package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

const ellipsis = "…"

// wrapText word-wraps s to width and hard-breaks any token still wider than
// width. Percent-encoded strings rarely contain spaces.
func wrapText(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	return wrap.String(wordwrap.String(s, width), width)
}

// clampLines keeps at most n lines, marking the cut with an ellipsis.
func clampLines(s string, n, width int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	lines = lines[:n]
	last := lines[n-1]
	if ansi.StringWidth(last)+1 > width {
		last = ansi.Truncate(last, max(width-1, 0), "")
	}
	lines[n-1] = last + ellipsis
	return strings.Join(lines, "\n")
}

// truncate shortens s to width cells, ANSI-aware.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, ellipsis)
}

// padLines pads every line of content to width using style for the padding.
func padLines(content string, width int, style lipgloss.Style) string {
	if width <= 0 || content == "" {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + style.Render(strings.Repeat(" ", width-w))
		}
	}
	return strings.Join(lines, "\n")
}

func maxLineWidth(lines []string) int {
	widest := 0
	for _, line := range lines {
		if w := lipgloss.Width(line); w > widest {
			widest = w
		}
	}
	return widest
}

// stripANSI removes escape sequences; used when measuring and in tests.
func stripANSI(s string) string {
	return ansi.Strip(s)
}

// fillBackground re-applies bg after every reset so gaps between styled
// segments keep the palette background.
func fillBackground(s, bg string) string {
	if bg == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x1b[0m", "\x1b[0m"+bg)
	s = strings.ReplaceAll(s, "\x1b[m", "\x1b[m"+bg)
	return strings.ReplaceAll(s, "\x1b[49m", bg)
}
