package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"urldeco/internal/ui/theme"
)

const (
	sideBySideMinWidth = 80
	resultRows         = 5
	resultPlaceholder  = "Result will appear here..."
)

var paneTitles = [2]struct{ input, result string }{
	paneDecode: {input: "Decode URL", result: "Decoded Result"},
	paneEncode: {input: "Encode URL", result: "Encoded Result"},
}

// View renders the model.
func (m *App) View() string {
	if !m.ready {
		return "Initializing..."
	}

	sections := []string{m.renderHeader()}
	if banner := m.renderUpdateBanner(); banner != "" {
		sections = append(sections, banner)
	}
	if m.pasteError != "" {
		sections = append(sections, m.styles.pasteError.Width(m.width).Render(m.pasteError))
	}
	sections = append(sections, m.renderPanes(), m.renderFooter())
	body := padLines(strings.Join(sections, "\n"), m.width, m.styles.base)

	palette := theme.ByName(m.themeName)
	c := newCanvas(m.width, m.height)
	c.fill(palette.Background)
	c.drawAt(0, 0, body)
	if m.errorToast != "" {
		c.placeBottomRight(m.renderErrorToast(), 1)
	}
	if len(m.dialogs) > 0 {
		c.placeCentered(m.renderDialog(), 1, 1)
	}
	return fillBackground(c.render(), palette.BackgroundANSI())
}

func (m *App) renderHeader() string {
	title := m.styles.header.Render("URLDECO")
	left := title
	if m.appVersion != "" {
		left += m.styles.version.Render(" v" + m.appVersion)
	}
	if m.platform != "" {
		left += m.styles.muted.Render(" · " + m.platform)
	}

	toggle := "☀ Light"
	if m.themeName == theme.NameLight {
		toggle = "☾ Dark"
	}
	right := m.styles.muted.Render(toggle+" ") + m.styles.hintKey.Render("ctrl+t")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return truncate(left+" "+right, m.width)
	}
	return left + m.styles.base.Render(strings.Repeat(" ", gap)) + right
}

func (m *App) renderUpdateBanner() string {
	switch {
	case m.updateDownloaded:
		text := fmt.Sprintf("✓ Update v%s ready!  ", m.updateVersion)
		return m.styles.bannerReady.Width(m.width).Render(text + "[ctrl+r] Restart Now")
	case m.updateAvailable:
		text := fmt.Sprintf("%s Downloading update v%s... ", m.spinner.View(), m.updateVersion)
		bar := m.progress.ViewAs(float64(m.downloadPercent) / 100)
		pct := fmt.Sprintf(" %3d%%", m.downloadPercent)
		return m.styles.bannerDownloading.Width(m.width).Render(text + bar + pct)
	}
	return ""
}

func (m *App) paneWidth() int {
	if m.width >= sideBySideMinWidth {
		return m.width / 2
	}
	return m.width
}

func (m *App) renderPanes() string {
	decode := m.renderPane(paneDecode)
	encode := m.renderPane(paneEncode)
	if m.width >= sideBySideMinWidth {
		return lipgloss.JoinHorizontal(lipgloss.Top, decode, encode)
	}
	return lipgloss.JoinVertical(lipgloss.Left, decode, encode)
}

func (m *App) renderPane(p pane) string {
	width := m.paneWidth()
	inner := max(width-4, 1)
	focused := p == m.focus

	label := m.styles.label
	box := m.styles.pane
	if focused {
		label = m.styles.labelFocused
		box = m.styles.paneFocused
	}

	pasteHint := m.styles.hintKey.Render("[ctrl+v]") + m.styles.muted.Render(" Paste")
	if m.pasted[p] {
		pasteHint = m.styles.ack.Render("Pasted!")
	}

	lines := []string{
		label.Render(paneTitles[p].input) + m.styles.base.Render("  ") + pasteHint,
		m.inputs[p].View(),
		"",
		label.Render(paneTitles[p].result),
		m.renderResult(p, inner),
	}
	if m.results[p] != "" {
		copyHint := m.styles.hintKey.Render("[ctrl+y]") + m.styles.muted.Render(" Copy")
		if m.copied[p] {
			copyHint = m.styles.ack.Render("Copied!")
		}
		lines = append(lines, copyHint)
	}

	content := padLines(strings.Join(lines, "\n"), inner, m.styles.base)
	return box.Width(width - 2).Render(content)
}

func (m *App) renderResult(p pane, width int) string {
	text := m.results[p]
	if text == "" {
		return m.styles.muted.Render(resultPlaceholder)
	}
	style := m.styles.result
	if m.resultBad[p] {
		style = m.styles.resultError
	}
	wrapped := clampLines(wrapText(text, width), resultRows, width)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

func (m *App) renderFooter() string {
	parts := make([]string, 0, 8)
	for _, b := range m.keys.footerBindings(m.updateDownloaded) {
		h := b.Help()
		parts = append(parts, m.styles.hintKey.Render(h.Key)+m.styles.muted.Render(" "+h.Desc))
	}
	return truncate(strings.Join(parts, m.styles.muted.Render("  ")), m.width)
}

func (m *App) renderErrorToast() string {
	width := min(m.width-4, 60)
	return m.styles.toastError.Render("⚠ " + wrapText(m.errorToast, max(width-6, 10)))
}
