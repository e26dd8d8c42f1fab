// Package ui is the presentation side of urldeco: a Bubble Tea model that
// runs the codec on user input and mirrors the update lifecycle it hears
// about over the bridge.
package ui

import (
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"urldeco/internal/codec"
	"urldeco/internal/debug"
	"urldeco/internal/ui/theme"
)

type pane int

const (
	paneDecode pane = iota
	paneEncode
)

func (p pane) other() pane { return 1 - p }

const eventBuffer = 64

// Config configures the presentation model.
type Config struct {
	// Bridge reaches the host. Nil runs the codec without update support.
	Bridge    Bridge
	Clipboard Clipboard
	// Theme is the initial theme name ("dark" or "light").
	Theme string
	// SaveTheme persists a theme change. May be nil.
	SaveTheme func(theme string) error
}

// App implements the Bubble Tea model.
type App struct {
	keys      KeyMap
	bridge    Bridge
	clipboard Clipboard
	saveTheme func(string) error
	log       debug.Logger

	inputs    [2]textinput.Model
	results   [2]string
	resultBad [2]bool
	focus     pane

	copied     [2]bool
	pasted     [2]bool
	ackSeq     [2][2]int // [ackKind][pane]
	pasteError string
	pasteSeq   int
	errorToast string
	toastSeq   int

	themeName string
	styles    styles

	appVersion string
	platform   string

	// Read-only projection of the host's update state.
	updateAvailable  bool
	updateDownloaded bool
	updateVersion    string
	downloadPercent  int
	progress         progress.Model
	spinner          spinner.Model

	dialogs []dialogState

	events      chan tea.Msg
	closed      chan struct{}
	closeOnce   sync.Once
	unsubscribe []func()

	width  int
	height int
	ready  bool
}

// NewApp constructs the model.
func NewApp(cfg Config) *App {
	decode := textinput.New()
	decode.Placeholder = "Paste URL-encoded text here..."
	decode.Prompt = "› "
	decode.Focus()

	encode := textinput.New()
	encode.Placeholder = "Paste text to encode here..."
	encode.Prompt = "› "

	m := &App{
		keys:      DefaultKeyMap(),
		bridge:    cfg.Bridge,
		clipboard: cfg.Clipboard,
		saveTheme: cfg.SaveTheme,
		log:       debug.For("ui"),
		inputs:    [2]textinput.Model{decode, encode},
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		events:  make(chan tea.Msg, eventBuffer),
		closed:  make(chan struct{}),
	}
	m.applyTheme(cfg.Theme)
	return m
}

// Init subscribes to update events and asks the host for its version.
func (m *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.bridge != nil {
		m.subscribe()
		cmds = append(cmds, m.waitForEvent(), m.fetchHostInfo())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layoutInputs()
		return m, nil

	case tea.KeyMsg:
		if len(m.dialogs) > 0 {
			return m.handleDialogKey(msg)
		}
		return m.handleKey(msg)

	case DialogMsg:
		m.dialogs = append(m.dialogs, newDialogState(msg))
		return m, nil

	case hostInfoMsg:
		if msg.err != nil {
			m.log.Errorf("host info: %v", msg.err)
		}
		if msg.version != "" {
			m.appVersion = msg.version
		}
		m.platform = msg.platform
		return m, nil

	case updateAvailableMsg:
		wasDownloading := m.downloading()
		m.updateAvailable = true
		m.updateDownloaded = false
		m.updateVersion = msg.version
		m.downloadPercent = 0
		cmds := []tea.Cmd{m.waitForEvent()}
		if !wasDownloading {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case downloadProgressMsg:
		m.downloadPercent = min(max(msg.percent, 0), 100)
		return m, m.waitForEvent()

	case updateDownloadedMsg:
		m.updateAvailable = true
		m.updateDownloaded = true
		m.updateVersion = msg.version
		m.downloadPercent = 100
		return m, m.waitForEvent()

	case updateErrorMsg:
		m.log.Errorf("update error: %s", msg.message)
		m.updateAvailable = false
		m.updateDownloaded = false
		m.downloadPercent = 0
		return m, tea.Batch(m.waitForEvent(), m.showErrorToast("Update error: "+msg.message))

	case spinner.TickMsg:
		if !m.downloading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case copyResultMsg:
		if msg.err != nil {
			return m, m.showErrorToast("Copy failed: " + msg.err.Error())
		}
		m.ackSeq[ackCopied][msg.pane]++
		m.copied[msg.pane] = true
		return m, scheduleAckClear(ackCopied, msg.pane, m.ackSeq[ackCopied][msg.pane])

	case pasteResultMsg:
		if msg.err != nil {
			m.log.Errorf("paste: %v", msg.err)
			m.pasteSeq++
			m.pasteError = pasteErrorText(msg.err)
			return m, schedulePasteErrorClear(m.pasteSeq)
		}
		m.inputs[msg.pane].SetValue(msg.text)
		m.inputs[msg.pane].CursorEnd()
		m.ackSeq[ackPasted][msg.pane]++
		m.pasted[msg.pane] = true
		return m, scheduleAckClear(ackPasted, msg.pane, m.ackSeq[ackPasted][msg.pane])

	case ackClearMsg:
		if msg.seq == m.ackSeq[msg.kind][msg.pane] {
			switch msg.kind {
			case ackCopied:
				m.copied[msg.pane] = false
			case ackPasted:
				m.pasted[msg.pane] = false
			}
		}
		return m, nil

	case pasteErrorClearMsg:
		if msg.seq == m.pasteSeq {
			m.pasteError = ""
		}
		return m, nil

	case errorToastClearMsg:
		if msg.seq == m.toastSeq {
			m.errorToast = ""
		}
		return m, nil

	case themeSavedMsg:
		if msg.err != nil {
			return m, m.showErrorToast("Could not save theme: " + msg.err.Error())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.SwitchPane):
		return m, m.setFocus(m.focus.other())
	case key.Matches(msg, m.keys.Run):
		m.run(m.focus)
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyResult(m.focus)
	case key.Matches(msg, m.keys.Paste):
		return m, m.paste(m.focus)
	case key.Matches(msg, m.keys.Theme):
		return m, m.toggleTheme()
	case key.Matches(msg, m.keys.Check):
		return m, m.checkForUpdates()
	case key.Matches(msg, m.keys.Restart):
		return m, m.restart()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *App) setFocus(p pane) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = p
	return m.inputs[p].Focus()
}

// run applies the codec for p to its input.
func (m *App) run(p pane) { m.convert(p, m.inputs[p].Value()) }

// convert stores the codec result for input in pane p. Failures show the
// fixed fallback.
func (m *App) convert(p pane, input string) {
	var (
		out string
		err error
	)
	if p == paneDecode {
		out, err = codec.Decode(input)
		if err != nil {
			out = codec.DecodeFallback
		}
	} else {
		out, err = codec.Encode(input)
		if err != nil {
			out = codec.EncodeFallback
		}
	}
	if err != nil {
		m.log.Logf("codec: %v", err)
	}
	m.results[p] = out
	m.resultBad[p] = err != nil
	m.copied[p] = false
}

func (m *App) copyResult(p pane) tea.Cmd {
	text := m.results[p]
	if text == "" || m.clipboard == nil {
		return nil
	}
	cb := m.clipboard
	return func() tea.Msg {
		return copyResultMsg{pane: p, err: cb.WriteAll(text)}
	}
}

func (m *App) paste(p pane) tea.Cmd {
	cb := m.clipboard
	return func() tea.Msg {
		if cb == nil {
			return pasteResultMsg{pane: p, err: errNoClipboard}
		}
		text, err := cb.ReadAll()
		return pasteResultMsg{pane: p, text: text, err: err}
	}
}

func (m *App) toggleTheme() tea.Cmd {
	m.applyTheme(theme.Toggle(m.themeName))
	save, name := m.saveTheme, m.themeName
	if save == nil {
		return nil
	}
	return func() tea.Msg {
		return themeSavedMsg{err: save(name)}
	}
}

func (m *App) applyTheme(name string) {
	p := theme.ByName(name)
	m.themeName = p.Name
	m.styles = newStyles(p)
	for i := range m.inputs {
		m.inputs[i].PromptStyle = m.styles.hintKey
		m.inputs[i].TextStyle = m.styles.base
		m.inputs[i].PlaceholderStyle = m.styles.muted
	}
}

func (m *App) checkForUpdates() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	b := m.bridge
	return func() tea.Msg {
		b.CheckForUpdates()
		return nil
	}
}

// restart fires quit-and-install. No response is expected: the host exits.
func (m *App) restart() tea.Cmd {
	if m.bridge == nil || !m.updateDownloaded {
		return nil
	}
	b := m.bridge
	return func() tea.Msg {
		b.QuitAndInstall()
		return nil
	}
}

func (m *App) showErrorToast(text string) tea.Cmd {
	m.toastSeq++
	m.errorToast = text
	return scheduleErrorToastClear(m.toastSeq)
}

func (m *App) downloading() bool {
	return m.updateAvailable && !m.updateDownloaded
}

func (m *App) layoutInputs() {
	w := m.paneWidth() - 6
	for i := range m.inputs {
		m.inputs[i].Width = max(w, 10)
	}
	m.progress.Width = min(max(m.width/3, 10), 40)
}

// ThemeName returns the active theme.
func (m *App) ThemeName() string { return m.themeName }
