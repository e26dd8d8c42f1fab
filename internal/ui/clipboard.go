package ui

import (
	"github.com/atotto/clipboard"
	"github.com/muesli/termenv"

	apperrors "urldeco/internal/errors"
)

const (
	pasteDeniedText      = "Paste permission denied. Use Ctrl+V / Cmd+V instead."
	pasteUnsupportedText = "Clipboard API not supported on this system. Use Ctrl+V / Cmd+V instead."
)

// Clipboard is the system clipboard as the model sees it.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard uses the platform clipboard utility. When none is
// installed, copies fall back to an OSC 52 sequence on out (which most
// terminals forward to the system clipboard); pastes fail.
type SystemClipboard struct {
	out *termenv.Output
}

// NewSystemClipboard returns a clipboard that falls back to OSC 52 on out.
// out may be nil to disable the fallback.
func NewSystemClipboard(out *termenv.Output) SystemClipboard {
	return SystemClipboard{out: out}
}

func (c SystemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", apperrors.New(apperrors.CodeClipboardUnsupported, "no clipboard utility available", nil)
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", apperrors.New(apperrors.CodeClipboardPermission, "read clipboard", err)
	}
	return text, nil
}

func (c SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		if c.out == nil {
			return apperrors.New(apperrors.CodeClipboardUnsupported, "no clipboard utility available", nil)
		}
		c.out.Copy(text)
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		return apperrors.New(apperrors.CodeClipboardPermission, "write clipboard", err)
	}
	return nil
}

// pasteErrorText maps a clipboard read failure to the banner shown to the user.
func pasteErrorText(err error) string {
	if apperrors.IsCode(err, apperrors.CodeClipboardUnsupported) {
		return pasteUnsupportedText
	}
	return pasteDeniedText
}

var errNoClipboard = apperrors.New(apperrors.CodeClipboardUnsupported, "no clipboard configured", nil)
