package monitor

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const dialTimeout = 10 * time.Second

// Client consumes frames pushed by a monitor Server.
type Client struct {
	conn      *websocket.Conn
	framesCh  chan frameOrError
	closeCh   chan struct{}
	closeOnce sync.Once
}

type frameOrError struct {
	frame Frame
	err   error
}

// Dial attaches to a monitor socket. addr may be a bare host:port, an
// http(s) URL or a ws(s) URL; the path defaults to /monitor.
func Dial(ctx context.Context, addr string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, normalizeAddr(addr), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("monitor: dial %s: %w (HTTP %d)", addr, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("monitor: dial %s: %w", addr, err)
	}

	c := &Client{
		conn:     conn,
		framesCh: make(chan frameOrError, 16),
		closeCh:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// normalizeAddr turns the accepted address forms into a ws(s) URL.
func normalizeAddr(addr string) string {
	switch {
	case strings.HasPrefix(addr, "ws://"), strings.HasPrefix(addr, "wss://"):
	case strings.HasPrefix(addr, "http://"):
		addr = "ws://" + strings.TrimPrefix(addr, "http://")
	case strings.HasPrefix(addr, "https://"):
		addr = "wss://" + strings.TrimPrefix(addr, "https://")
	default:
		addr = "ws://" + addr
	}
	if !strings.Contains(strings.TrimPrefix(strings.TrimPrefix(addr, "wss://"), "ws://"), "/") {
		addr += "/monitor"
	}
	return addr
}

// Frames iterates over pushed frames until the connection drops or the
// client is closed. A read failure yields one final non-nil error.
func (c *Client) Frames() iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			select {
			case <-c.closeCh:
				return
			case item, ok := <-c.framesCh:
				if !ok {
					return
				}
				if !yield(item.frame, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// Close detaches from the server.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readLoop() {
	defer close(c.framesCh)
	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			select {
			case <-c.closeCh:
			case c.framesCh <- frameOrError{err: fmt.Errorf("monitor: read frame: %w", err)}:
			}
			return
		}
		select {
		case <-c.closeCh:
			return
		case c.framesCh <- frameOrError{frame: frame}:
		}
	}
}
