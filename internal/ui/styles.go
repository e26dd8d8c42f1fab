package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"urldeco/internal/ui/theme"
)

// styles is the full style sheet for one palette. Every style carries the
// background it is drawn on.
type styles struct {
	base         lipgloss.Style
	header       lipgloss.Style
	version      lipgloss.Style
	muted        lipgloss.Style
	label        lipgloss.Style
	labelFocused lipgloss.Style
	pane         lipgloss.Style
	paneFocused  lipgloss.Style
	result       lipgloss.Style
	resultError  lipgloss.Style
	ack          lipgloss.Style
	hintKey      lipgloss.Style

	bannerDownloading lipgloss.Style
	bannerReady       lipgloss.Style
	pasteError        lipgloss.Style

	toastError   lipgloss.Style
	dialog       lipgloss.Style
	dialogTitle  lipgloss.Style
	dialogBody   lipgloss.Style
	button       lipgloss.Style
	buttonActive lipgloss.Style
}

func newStyles(p theme.Palette) styles {
	bg := p.Background
	bg2 := p.BackgroundSecondary
	on := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Background(bg).Foreground(c)
	}
	border := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c).
			BorderBackground(bg).
			Background(bg).
			Padding(0, 1)
	}
	return styles{
		base:         on(p.Text),
		header:       lipgloss.NewStyle().Background(p.Primary).Foreground(bg).Bold(true).Padding(0, 1),
		version:      on(p.Accent),
		muted:        on(p.TextMuted),
		label:        on(p.Secondary).Bold(true),
		labelFocused: on(p.Primary).Bold(true),
		pane:         border(p.BorderNormal),
		paneFocused:  border(p.BorderFocused),
		result:       on(p.TextEmphasized),
		resultError:  on(p.Error),
		ack:          on(p.Success).Bold(true),
		hintKey:      on(p.Info).Bold(true),

		bannerDownloading: lipgloss.NewStyle().Background(bg2).Foreground(p.Info).Padding(0, 1),
		bannerReady:       lipgloss.NewStyle().Background(bg2).Foreground(p.Success).Bold(true).Padding(0, 1),
		pasteError:        lipgloss.NewStyle().Background(bg2).Foreground(p.Warning).Padding(0, 1),

		toastError: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Error).
			BorderBackground(bg).
			Background(bg2).
			Foreground(p.Error).
			Padding(0, 1),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.BorderFocused).
			BorderBackground(bg).
			Background(bg2).
			Foreground(p.Text).
			Padding(1, 2),
		dialogTitle:  lipgloss.NewStyle().Background(bg2).Foreground(p.Primary).Bold(true),
		dialogBody:   lipgloss.NewStyle().Background(bg2).Foreground(p.Text),
		button:       lipgloss.NewStyle().Background(bg2).Foreground(p.TextMuted).Padding(0, 1),
		buttonActive: lipgloss.NewStyle().Background(p.Primary).Foreground(bg2).Bold(true).Padding(0, 1),
	}
}

// buildMarkdownRenderer returns a glamour renderer for release notes, falling
// back to plain word wrapping when glamour cannot be set up.
func buildMarkdownRenderer(style string, width int) func(string) string {
	fallback := func(input string) string {
		return wordwrap.String(input, width)
	}
	if width <= 0 {
		return strings.TrimSpace
	}

	style = strings.ToLower(strings.TrimSpace(style))
	switch style {
	case "plain":
		return fallback
	case theme.NameLight:
	default:
		style = theme.NameDark
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fallback
	}
	return func(input string) string {
		out, err := renderer.Render(input)
		if err != nil {
			return fallback(input)
		}
		return strings.TrimSpace(out)
	}
}
