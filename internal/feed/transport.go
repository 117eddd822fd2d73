package feed

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

// Conn is the minimal transport surface a connection needs. The production
// implementation is a gorilla websocket; tests substitute fakes to drive the
// open/close/error lifecycle without a network.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a transport to a streaming endpoint. Dial honors the context
// deadline; a deadline expiry maps to the connect-timeout fallback.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// ConstructionError marks failures where the transport could not even be
// constructed, as opposed to a network-level dial failure.
type ConstructionError struct {
	Endpoint string
	Err      error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct transport for %s: %v", e.Endpoint, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

type wsDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer returns the production dialer backed by
// gorilla/websocket.
func NewWebsocketDialer() Dialer {
	return &wsDialer{dialer: websocket.DefaultDialer}
}

func (d *wsDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &ConstructionError{Endpoint: endpoint, Err: err}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, &ConstructionError{Endpoint: endpoint, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	conn, resp, err := d.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

// isNormalClose reports whether the read error is a normal-closure close
// frame (1000/1001), which ends the connection without a retry.
func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
