package coordinator

import (
	"fmt"
	"strings"
)

// State enumerates the update lifecycle.
type State int

const (
	StateIdle State = iota
	StateChecking
	StateAvailable
	StateDownloading
	StateDownloaded
	StateErrored
	// StateInstalling is terminal: the process is being replaced.
	StateInstalling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateAvailable:
		return "available"
	case StateDownloading:
		return "downloading"
	case StateDownloaded:
		return "downloaded"
	case StateErrored:
		return "errored"
	case StateInstalling:
		return "installing"
	default:
		return "unknown"
	}
}

// ReleaseInfo identifies an available or downloaded update.
type ReleaseInfo struct {
	Version string
	Notes   string
	URL     string // release page, optional
}

// detail is the markdown body of the "Update Available" dialog.
func (r ReleaseInfo) detail() string {
	notes := strings.TrimSpace(r.Notes)
	if r.URL == "" {
		return notes
	}
	link := fmt.Sprintf("[Release page](%s)", r.URL)
	if notes == "" {
		return link
	}
	return notes + "\n\n" + link
}

// Snapshot is a copy of the coordinator's state at one point in time.
type Snapshot struct {
	State   State
	Release ReleaseInfo
	Percent int
	Message string
	Checks  int // checks actually launched since start
}

// Emitter receives lifecycle events in emission order. The bridge implements
// it on the host side.
type Emitter interface {
	UpdateAvailable(info ReleaseInfo)
	UpdateDownloaded(info ReleaseInfo)
	UpdateError(message string)
	DownloadProgress(percent int)
}

// Dialog is a modal message the host shows on its window.
type Dialog struct {
	Title   string
	Message string
	Detail  string // markdown, optional
	Buttons []string
}

// Notifier shows host dialogs. Prompt blocks until a button is chosen and
// returns its index.
type Notifier interface {
	Prompt(dialog Dialog) (int, error)
}

// percentOf converts a byte count to a whole percent in [0,100].
func percentOf(written, total int64) (int, bool) {
	if total <= 0 {
		return 0, false
	}
	p := int((float64(written)*100)/float64(total) + 0.5)
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p, true
}
