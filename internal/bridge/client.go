package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"urldeco/internal/debug"
)

// Client is the presentation end of the bridge. Run must be running for
// responses and events to be delivered.
type Client struct {
	requests chan<- []byte
	inbound  <-chan []byte
	hostDone <-chan struct{}
	done     chan struct{}
	log      debug.Logger

	nextID atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan frame
	subs    map[string][]subscriber
	nextSub uint64
}

type subscriber struct {
	id uint64
	fn func(json.RawMessage)
}

func newClient(requests chan<- []byte, inbound <-chan []byte, hostDone <-chan struct{}) *Client {
	return &Client{
		requests: requests,
		inbound:  inbound,
		hostDone: hostDone,
		done:     make(chan struct{}),
		log:      debug.For("bridge"),
		pending:  make(map[uint64]chan frame),
		subs:     make(map[string][]subscriber),
	}
}

// Run delivers responses and events in arrival order until ctx is cancelled
// or the host stops. Subscribers are called on this goroutine.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.hostDone:
			return ErrClosed
		case raw := <-c.inbound:
			f, err := decodeFrame(raw)
			if err != nil {
				c.log.Errorf("%v", err)
				continue
			}
			switch f.Kind {
			case kindResponse:
				c.resolve(f)
			case kindEvent:
				c.dispatch(f)
			default:
				c.log.Errorf("unexpected %s frame from host", f.Kind)
			}
		}
	}
}

// GetVersion returns the running application's version.
func (c *Client) GetVersion(ctx context.Context) (string, error) {
	var v string
	err := c.call(ctx, OpGetVersion, &v)
	return v, err
}

// GetPlatform returns the host operating system identifier.
func (c *Client) GetPlatform(ctx context.Context) (string, error) {
	var p string
	err := c.call(ctx, OpGetPlatform, &p)
	return p, err
}

// CheckForUpdates asks the host to check now. No response is expected.
func (c *Client) CheckForUpdates() { c.send(OpCheckForUpdates) }

// QuitAndInstall asks the host to install the downloaded update. If one is
// ready the process exits; no response is expected.
func (c *Client) QuitAndInstall() { c.send(OpQuitAndInstall) }

// OnUpdateAvailable subscribes fn and returns its unsubscribe func.
func (c *Client) OnUpdateAvailable(fn func(VersionEvent)) func() {
	return subscribe(c, EventUpdateAvailable, fn)
}

// OnUpdateDownloaded subscribes fn and returns its unsubscribe func.
func (c *Client) OnUpdateDownloaded(fn func(VersionEvent)) func() {
	return subscribe(c, EventUpdateDownloaded, fn)
}

// OnUpdateError subscribes fn and returns its unsubscribe func.
func (c *Client) OnUpdateError(fn func(ErrorEvent)) func() {
	return subscribe(c, EventUpdateError, fn)
}

// OnDownloadProgress subscribes fn and returns its unsubscribe func.
func (c *Client) OnDownloadProgress(fn func(ProgressEvent)) func() {
	return subscribe(c, EventDownloadProgress, fn)
}

func subscribe[T any](c *Client, event string, fn func(T)) func() {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs[event] = append(c.subs[event], subscriber{id: id, fn: func(raw json.RawMessage) {
		var payload T
		if err := json.Unmarshal(raw, &payload); err != nil {
			c.log.Errorf("decode %s payload: %v", event, err)
			return
		}
		fn(payload)
	}})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			list := c.subs[event]
			for i, s := range list {
				if s.id == id {
					c.subs[event] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

func (c *Client) dispatch(f frame) {
	c.mu.Lock()
	subs := append([]subscriber(nil), c.subs[f.Event]...)
	c.mu.Unlock()
	for _, s := range subs {
		s.fn(f.Payload)
	}
}

func (c *Client) resolve(f frame) {
	c.mu.Lock()
	ch, ok := c.pending[f.ID]
	delete(c.pending, f.ID)
	c.mu.Unlock()
	if !ok {
		c.log.Errorf("response for unknown request %d", f.ID)
		return
	}
	ch <- f
}

func (c *Client) call(ctx context.Context, op string, out any) error {
	id := c.nextID.Add(1)
	reply := make(chan frame, 1)
	c.mu.Lock()
	c.pending[id] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(ctx, frame{Kind: kindRequest, ID: id, Op: op}); err != nil {
		return err
	}

	select {
	case resp := <-reply:
		if resp.Error != "" {
			return fmt.Errorf("%s: %s", op, resp.Error)
		}
		if out == nil || len(resp.Payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Payload, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		return nil
	case <-c.done:
		return ErrClosed
	case <-c.hostDone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) send(op string) {
	if err := c.write(context.Background(), frame{Kind: kindRequest, Op: op}); err != nil && !errors.Is(err, ErrClosed) {
		c.log.Errorf("%s: %v", op, err)
	}
}

func (c *Client) write(ctx context.Context, f frame) error {
	raw, err := encodeFrame(f)
	if err != nil {
		return err
	}
	select {
	case c.requests <- raw:
		return nil
	case <-c.hostDone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
