package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"urldeco/internal/coordinator"
)

const (
	dialogMaxWidth  = 64
	dialogNotesRows = 10
)

// dialogState is a host dialog waiting for an answer.
type dialogState struct {
	dialog   coordinator.Dialog
	reply    chan<- int
	selected int
}

func newDialogState(msg DialogMsg) dialogState {
	d := msg.Dialog
	if len(d.Buttons) == 0 {
		d.Buttons = []string{"OK"}
	}
	return dialogState{dialog: d, reply: msg.Reply}
}

// answer sends choice to the host without blocking.
func (d dialogState) answer(choice int) {
	if d.reply == nil {
		return
	}
	select {
	case d.reply <- choice:
	default:
	}
}

// cancelChoice is the button chosen by esc: the last one ("Later", or the
// only "OK").
func (d dialogState) cancelChoice() int {
	return len(d.dialog.Buttons) - 1
}

func (m *App) handleDialogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := &m.dialogs[0]
	n := len(d.dialog.Buttons)
	switch {
	case key.Matches(msg, m.keys.Next):
		d.selected = (d.selected + 1) % n
	case key.Matches(msg, m.keys.Prev):
		d.selected = (d.selected - 1 + n) % n
	case key.Matches(msg, m.keys.Choose):
		m.closeDialog(d.selected)
	case key.Matches(msg, m.keys.Cancel):
		m.closeDialog(d.cancelChoice())
	case msg.String() == "ctrl+c":
		m.closeDialog(d.cancelChoice())
		m.Close()
		return m, tea.Quit
	}
	return m, nil
}

func (m *App) closeDialog(choice int) {
	m.dialogs[0].answer(choice)
	m.dialogs = m.dialogs[1:]
}

func (m *App) renderDialog() string {
	d := m.dialogs[0]
	width := min(dialogMaxWidth, max(m.width-6, 20))
	inner := width - 4

	var b strings.Builder
	b.WriteString(m.styles.dialogTitle.Render(truncate(d.dialog.Title, inner)))
	b.WriteString("\n\n")
	b.WriteString(m.styles.dialogBody.Render(wrapText(d.dialog.Message, inner)))
	if notes := strings.TrimSpace(d.dialog.Detail); notes != "" {
		render := buildMarkdownRenderer(m.themeName, inner-4)
		b.WriteString("\n\n")
		b.WriteString(clampLines(render(notes), dialogNotesRows, inner))
	}
	b.WriteString("\n\n")

	buttons := make([]string, len(d.dialog.Buttons))
	for i, label := range d.dialog.Buttons {
		if i == d.selected {
			buttons[i] = m.styles.buttonActive.Render(label)
		} else {
			buttons[i] = m.styles.button.Render(label)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, joinWith(buttons, m.styles.dialogBody.Render("  "))...))

	return m.styles.dialog.Width(width).Render(b.String())
}

func joinWith(items []string, sep string) []string {
	out := make([]string, 0, len(items)*2)
	for i, item := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, item)
	}
	return out
}
