package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/cellbuf"
)

// canvas composes lipgloss blocks into a cell buffer so dialogs and toasts
// can be drawn over the main view, then flattens the frame for Bubble Tea.
type canvas struct {
	screen *cellbuf.Screen
	writer *cellbuf.ScreenWriter
	width  int
	height int
}

func newCanvas(width, height int) *canvas {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	screen := cellbuf.NewScreen(io.Discard, width, height, &cellbuf.ScreenOptions{
		ShowCursor: false,
		AltScreen:  false,
	})
	return &canvas{
		screen: screen,
		writer: cellbuf.NewScreenWriter(screen),
		width:  width,
		height: height,
	}
}

// fill paints the whole canvas with bg.
func (c *canvas) fill(bg lipgloss.TerminalColor) {
	block := lipgloss.NewStyle().
		Background(bg).
		Width(c.width).
		Height(c.height).
		Render("")
	c.drawAt(0, 0, block)
}

// drawAt writes block with its top-left corner at x,y, cropping at the edges.
func (c *canvas) drawAt(x, y int, block string) {
	for i, line := range splitLines(block) {
		row := y + i
		if row >= c.height {
			break
		}
		if row < 0 || line == "" {
			continue
		}
		c.writer.PrintCropAt(max(x, 0), row, line, "")
	}
}

// placeCentered draws block centered in the area between the margins.
func (c *canvas) placeCentered(block string, topMargin, bottomMargin int) {
	lines := splitLines(block)
	if len(lines) == 0 {
		return
	}
	h := len(lines)
	w := min(maxLineWidth(lines), c.width)

	topMargin = max(topMargin, 0)
	bottomMargin = max(bottomMargin, 0)
	usable := max(c.height-topMargin-bottomMargin, h)

	y := topMargin + (usable-h)/2
	y = min(y, c.height-bottomMargin-h)
	y = max(y, topMargin, 0)
	if y+h > c.height {
		y = max(c.height-h, 0)
	}
	x := max((c.width-w)/2, 0)
	c.drawAt(x, y, block)
}

// placeBottomRight anchors block to the bottom-right corner inside padding.
func (c *canvas) placeBottomRight(block string, padding int) {
	lines := splitLines(block)
	if len(lines) == 0 {
		return
	}
	padding = max(padding, 0)
	y := max(c.height-len(lines)-padding, 0)
	x := max(c.width-maxLineWidth(lines)-padding, 0)
	c.drawAt(x, y, block)
}

// render flattens the frame into newline-separated rows.
func (c *canvas) render() string {
	raw := cellbuf.Render(c.screen)
	_ = c.screen.Close()
	return strings.ReplaceAll(raw, "\r\n", "\n")
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}
