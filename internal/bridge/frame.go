package bridge

import (
	"encoding/json"
	"fmt"
)

// Request operations. No other operation is served.
const (
	OpGetVersion      = "get-version"
	OpGetPlatform     = "get-platform"
	OpCheckForUpdates = "check-for-updates"
	OpQuitAndInstall  = "quit-and-install"
)

// Event names delivered to subscribers.
const (
	EventUpdateAvailable  = "update-available"
	EventUpdateDownloaded = "update-downloaded"
	EventUpdateError      = "update-error"
	EventDownloadProgress = "download-progress"
)

type frameKind string

const (
	kindRequest  frameKind = "request"
	kindResponse frameKind = "response"
	kindEvent    frameKind = "event"
)

// frame is the unit that crosses the boundary. Requests with ID 0 expect no
// response.
type frame struct {
	Kind    frameKind       `json:"kind"`
	ID      uint64          `json:"id,omitempty"`
	Op      string          `json:"op,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// VersionEvent is the payload of update-available and update-downloaded.
type VersionEvent struct {
	Version string `json:"version"`
}

// ErrorEvent is the payload of update-error.
type ErrorEvent struct {
	Message string `json:"message"`
}

// ProgressEvent is the payload of download-progress.
type ProgressEvent struct {
	Percent int `json:"percent"`
}

func encodeFrame(f frame) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Kind, err)
	}
	return b, nil
}

func decodeFrame(b []byte) (frame, error) {
	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		return frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

func eventFrame(event string, payload any) (frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return frame{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return frame{Kind: kindEvent, Event: event, Payload: raw}, nil
}
