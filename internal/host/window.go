package host

import (
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrWindowClosed is returned when a dialog cannot be shown or answered
// because the window has gone away.
var ErrWindowClosed = errors.New("window closed")

// Window is the application's single window: a Bubble Tea program running
// the presentation model.
type Window struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
}

func newWindow(model tea.Model, opts ...tea.ProgramOption) *Window {
	return &Window{
		program: tea.NewProgram(model, opts...),
		done:    make(chan struct{}),
	}
}

// Run shows the window and blocks until it closes.
func (w *Window) Run() error {
	defer w.once.Do(func() { close(w.done) })
	_, err := w.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// Send delivers msg to the presentation model. It reports false once the
// window has closed.
func (w *Window) Send(msg tea.Msg) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	w.program.Send(msg)
	return true
}

// Close asks the window to quit.
func (w *Window) Close() { w.program.Quit() }

// Done is closed after Run returns.
func (w *Window) Done() <-chan struct{} { return w.done }
