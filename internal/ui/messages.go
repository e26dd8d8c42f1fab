package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"urldeco/internal/coordinator"
)

const (
	ackDuration        = 2 * time.Second
	pasteErrorDuration = 3 * time.Second
	errorToastDuration = 6 * time.Second
)

// Update lifecycle events as delivered by the bridge.
type (
	updateAvailableMsg  struct{ version string }
	updateDownloadedMsg struct{ version string }
	updateErrorMsg      struct{ message string }
	downloadProgressMsg struct{ percent int }
)

type hostInfoMsg struct {
	version  string
	platform string
	err      error
}

type copyResultMsg struct {
	pane pane
	err  error
}

type pasteResultMsg struct {
	pane pane
	text string
	err  error
}

type themeSavedMsg struct{ err error }

type ackKind int

const (
	ackCopied ackKind = iota
	ackPasted
)

// ackClearMsg clears a copied/pasted flag unless it was set again since.
type ackClearMsg struct {
	kind ackKind
	pane pane
	seq  int
}

type pasteErrorClearMsg struct{ seq int }

type errorToastClearMsg struct{ seq int }

// DialogMsg asks the model to show a host dialog. The index of the chosen
// button is sent on Reply, which must have room for one value.
type DialogMsg struct {
	Dialog coordinator.Dialog
	Reply  chan<- int
}

func scheduleAckClear(kind ackKind, p pane, seq int) tea.Cmd {
	return tea.Tick(ackDuration, func(time.Time) tea.Msg {
		return ackClearMsg{kind: kind, pane: p, seq: seq}
	})
}

func schedulePasteErrorClear(seq int) tea.Cmd {
	return tea.Tick(pasteErrorDuration, func(time.Time) tea.Msg {
		return pasteErrorClearMsg{seq: seq}
	})
}

func scheduleErrorToastClear(seq int) tea.Cmd {
	return tea.Tick(errorToastDuration, func(time.Time) tea.Msg {
		return errorToastClearMsg{seq: seq}
	})
}
