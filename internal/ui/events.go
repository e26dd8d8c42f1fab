package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"urldeco/internal/bridge"
)

const hostInfoTimeout = 5 * time.Second

// Bridge is the host surface reachable from the presentation model.
// *bridge.Client implements it.
type Bridge interface {
	GetVersion(ctx context.Context) (string, error)
	GetPlatform(ctx context.Context) (string, error)
	CheckForUpdates()
	QuitAndInstall()
	OnUpdateAvailable(fn func(bridge.VersionEvent)) func()
	OnUpdateDownloaded(fn func(bridge.VersionEvent)) func()
	OnUpdateError(fn func(bridge.ErrorEvent)) func()
	OnDownloadProgress(fn func(bridge.ProgressEvent)) func()
}

var _ Bridge = (*bridge.Client)(nil)

// subscribe routes bridge events into m.events in delivery order.
func (m *App) subscribe() {
	if m.bridge == nil || m.unsubscribe != nil {
		return
	}
	m.unsubscribe = []func(){
		m.bridge.OnUpdateAvailable(func(e bridge.VersionEvent) {
			m.forward(updateAvailableMsg{version: e.Version})
		}),
		m.bridge.OnUpdateDownloaded(func(e bridge.VersionEvent) {
			m.forward(updateDownloadedMsg{version: e.Version})
		}),
		m.bridge.OnUpdateError(func(e bridge.ErrorEvent) {
			m.forward(updateErrorMsg{message: e.Message})
		}),
		m.bridge.OnDownloadProgress(func(e bridge.ProgressEvent) {
			m.forward(downloadProgressMsg{percent: e.Percent})
		}),
	}
}

func (m *App) forward(msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-m.closed:
	}
}

// waitForEvent blocks until the next bridge event and hands it to Update,
// which re-arms the wait.
func (m *App) waitForEvent() tea.Cmd {
	events, closed := m.events, m.closed
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-closed:
			return nil
		}
	}
}

func (m *App) fetchHostInfo() tea.Cmd {
	b := m.bridge
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), hostInfoTimeout)
		defer cancel()
		version, err := b.GetVersion(ctx)
		if err != nil {
			return hostInfoMsg{err: err}
		}
		platform, err := b.GetPlatform(ctx)
		return hostInfoMsg{version: version, platform: platform, err: err}
	}
}

// Close unsubscribes from the bridge. It is safe to call more than once.
func (m *App) Close() {
	m.closeOnce.Do(func() {
		for _, unsub := range m.unsubscribe {
			unsub()
		}
		close(m.closed)
	})
}
