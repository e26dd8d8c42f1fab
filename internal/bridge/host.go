package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"urldeco/internal/coordinator"
	"urldeco/internal/debug"
)

var (
	// ErrClosed is returned once either side of the bridge has stopped.
	ErrClosed = errors.New("bridge closed")
	// ErrUnknownOperation is returned for requests outside the fixed surface.
	ErrUnknownOperation = errors.New("unknown operation")
)

const queueSize = 256

// Handler is the host capability set reachable through the bridge.
type Handler interface {
	Version() string
	Platform() string
	CheckForUpdates()
	QuitAndInstall()
}

// Host is the host end of the bridge. It serves requests to a Handler and
// implements coordinator.Emitter so lifecycle events flow to the client.
type Host struct {
	handler  Handler
	requests chan []byte
	outbound chan []byte
	done     chan struct{}
	log      debug.Logger
}

var _ coordinator.Emitter = (*Host)(nil)

// New connects a Host serving handler to a Client.
func New(handler Handler) (*Host, *Client) {
	requests := make(chan []byte, queueSize)
	outbound := make(chan []byte, queueSize)
	h := &Host{
		handler:  handler,
		requests: requests,
		outbound: outbound,
		done:     make(chan struct{}),
		log:      debug.For("bridge"),
	}
	return h, newClient(requests, outbound, h.done)
}

// Serve dispatches requests until ctx is cancelled.
func (h *Host) Serve(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw := <-h.requests:
			h.serve(ctx, raw)
		}
	}
}

func (h *Host) serve(ctx context.Context, raw []byte) {
	req, err := decodeFrame(raw)
	if err != nil {
		h.log.Errorf("%v", err)
		return
	}
	if req.Kind != kindRequest {
		h.log.Errorf("unexpected %s frame from client", req.Kind)
		return
	}

	var result any
	switch req.Op {
	case OpGetVersion:
		result = h.handler.Version()
	case OpGetPlatform:
		result = h.handler.Platform()
	case OpCheckForUpdates:
		h.handler.CheckForUpdates()
	case OpQuitAndInstall:
		h.handler.QuitAndInstall()
	default:
		h.log.Errorf("rejected request %q", req.Op)
		h.reply(ctx, frame{Kind: kindResponse, ID: req.ID, Error: fmt.Sprintf("%v: %s", ErrUnknownOperation, req.Op)})
		return
	}

	resp := frame{Kind: kindResponse, ID: req.ID}
	if result != nil {
		payload, err := json.Marshal(result)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Payload = payload
		}
	}
	h.reply(ctx, resp)
}

func (h *Host) reply(ctx context.Context, resp frame) {
	if resp.ID == 0 {
		return
	}
	raw, err := encodeFrame(resp)
	if err != nil {
		h.log.Errorf("%v", err)
		return
	}
	select {
	case h.outbound <- raw:
	case <-ctx.Done():
	}
}

// emit queues an event. It blocks while the queue is full so that no event
// is dropped or reordered.
func (h *Host) emit(event string, payload any) {
	f, err := eventFrame(event, payload)
	if err != nil {
		h.log.Errorf("%v", err)
		return
	}
	raw, err := encodeFrame(f)
	if err != nil {
		h.log.Errorf("%v", err)
		return
	}
	select {
	case h.outbound <- raw:
	case <-h.done:
	}
}

func (h *Host) UpdateAvailable(info coordinator.ReleaseInfo) {
	h.emit(EventUpdateAvailable, VersionEvent{Version: info.Version})
}

func (h *Host) UpdateDownloaded(info coordinator.ReleaseInfo) {
	h.emit(EventUpdateDownloaded, VersionEvent{Version: info.Version})
}

func (h *Host) UpdateError(message string) {
	h.emit(EventUpdateError, ErrorEvent{Message: message})
}

func (h *Host) DownloadProgress(percent int) {
	h.emit(EventDownloadProgress, ProgressEvent{Percent: percent})
}
