// Package theme provides the two color palettes urldeco ships with.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	NameDark  = "dark"
	NameLight = "light"
)

// Palette holds the semantic colors the UI draws with.
type Palette struct {
	Name string

	Primary   lipgloss.Color // focused borders, header
	Secondary lipgloss.Color // labels
	Accent    lipgloss.Color // versions, highlights

	Error   lipgloss.Color
	Warning lipgloss.Color
	Success lipgloss.Color
	Info    lipgloss.Color

	Text           lipgloss.Color
	TextMuted      lipgloss.Color
	TextEmphasized lipgloss.Color

	Background          lipgloss.Color
	BackgroundSecondary lipgloss.Color // dialogs, toasts

	BorderNormal  lipgloss.Color
	BorderFocused lipgloss.Color
}

// Dark is the default palette (Catppuccin Mocha).
var Dark = Palette{
	Name:                NameDark,
	Primary:             "#89b4fa",
	Secondary:           "#cba6f7",
	Accent:              "#fab387",
	Error:               "#f38ba8",
	Warning:             "#f9e2af",
	Success:             "#a6e3a1",
	Info:                "#89dceb",
	Text:                "#cdd6f4",
	TextMuted:           "#6c7086",
	TextEmphasized:      "#f5e0dc",
	Background:          "#1e1e2e",
	BackgroundSecondary: "#313244",
	BorderNormal:        "#6c7086",
	BorderFocused:       "#89b4fa",
}

// Light is Catppuccin Latte.
var Light = Palette{
	Name:                NameLight,
	Primary:             "#1e66f5",
	Secondary:           "#8839ef",
	Accent:              "#fe640b",
	Error:               "#d20f39",
	Warning:             "#df8e1d",
	Success:             "#40a02b",
	Info:                "#04a5e5",
	Text:                "#4c4f69",
	TextMuted:           "#9ca0b0",
	TextEmphasized:      "#dc8a78",
	Background:          "#eff1f5",
	BackgroundSecondary: "#e6e9ef",
	BorderNormal:        "#9ca0b0",
	BorderFocused:       "#1e66f5",
}

// ByName returns the palette for name, falling back to Dark.
func ByName(name string) Palette {
	if name == NameLight {
		return Light
	}
	return Dark
}

// Toggle returns the name of the other palette.
func Toggle(name string) string {
	if name == NameLight {
		return NameDark
	}
	return NameLight
}

// IsDark reports whether the palette has a dark background.
func (p Palette) IsDark() bool { return p.Name != NameLight }

// BackgroundANSI returns the SGR sequence that sets the palette background.
func (p Palette) BackgroundANSI() string {
	return sgr(p.Background)
}

// BackgroundSecondaryANSI returns the SGR sequence for the secondary background.
func (p Palette) BackgroundSecondaryANSI() string {
	return sgr(p.BackgroundSecondary)
}

func sgr(c lipgloss.Color) string {
	return termenv.CSI + termenv.TrueColor.Color(string(c)).Sequence(true) + "m"
}
