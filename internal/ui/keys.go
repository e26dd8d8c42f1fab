package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the application's keyboard shortcuts.
type KeyMap struct {
	SwitchPane key.Binding
	Run        key.Binding
	Copy       key.Binding
	Paste      key.Binding
	Theme      key.Binding
	Check      key.Binding
	Restart    key.Binding
	Quit       key.Binding

	// Dialog navigation
	Next   key.Binding
	Prev   key.Binding
	Choose key.Binding
	Cancel key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		SwitchPane: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch"),
		),
		Run: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy"),
		),
		Paste: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "paste"),
		),
		Theme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "theme"),
		),
		Check: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "check updates"),
		),
		Restart: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "restart"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "tab", "l"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "shift+tab", "h"),
		),
		Choose: key.NewBinding(
			key.WithKeys("enter", " "),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
		),
	}
}

// footerBindings lists the bindings shown in the footer, in order.
func (k KeyMap) footerBindings(restartReady bool) []key.Binding {
	bindings := []key.Binding{k.SwitchPane, k.Run, k.Paste, k.Copy, k.Theme, k.Check}
	if restartReady {
		bindings = append(bindings, k.Restart)
	}
	return append(bindings, k.Quit)
}
