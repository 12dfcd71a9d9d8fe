// SPDX-License-Identifier: LGPL-3.0-or-later

package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket implements Transport over persistent WebSocket
// connections. Outbound sends dial (and keep open) one connection per
// destination URL; inbound frames from every peer that dials in are
// merged into a single receive stream, since receive_stream is keyed
// by the local VID rather than by peer.
//
// Unlike a request/response RPC transport, Send here is fire-and-
// forget: TSP messages already carry their own addressing and framing
// in the envelope, so there is no wire-level correlation id or reply
// to wait for.
type WebSocket struct {
	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*websocket.Conn

	in chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// NewWebSocket creates a WebSocket transport with the given inbound
// buffer depth (0 means unbuffered).
func NewWebSocket(inboxBuffer int) *WebSocket {
	return &WebSocket{
		dialTimeout:  30 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 30 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		conns:  make(map[string]*websocket.Conn),
		in:     make(chan []byte, inboxBuffer),
		closed: make(chan struct{}),
	}
}

// Send dials (or reuses) a connection to url and writes payload as a
// single binary frame.
func (t *WebSocket) Send(ctx context.Context, url string, payload []byte) error {
	conn, err := t.connFor(ctx, url)
	if err != nil {
		return newTransientError(url, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return newTransientError(url, err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		_ = conn.Close()
		delete(t.conns, url)
		return newTransientError(url, err)
	}
	return nil
}

func (t *WebSocket) connFor(ctx context.Context, url string) (*websocket.Conn, error) {
	t.mu.Lock()
	if conn, ok := t.conns[url]; ok {
		t.mu.Unlock()
		return conn, nil
	}
	t.mu.Unlock()

	dialer := &websocket.Dialer{HandshakeTimeout: t.dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial %s failed (HTTP %d): %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial %s failed: %w", url, err)
	}

	t.mu.Lock()
	t.conns[url] = conn
	t.mu.Unlock()
	return conn, nil
}

// ReceiveStream returns the shared inbound channel every accepted
// connection's frames are forwarded onto. localVID is accepted for
// interface symmetry but unused: one WebSocket transport instance
// serves exactly one local endpoint.
func (t *WebSocket) ReceiveStream(_ string) (<-chan []byte, error) {
	return t.in, nil
}

// Handler returns the http.Handler that accepts inbound WebSocket
// connections, upgrading them and forwarding every binary frame they
// carry onto the shared receive stream.
func (t *WebSocket) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := t.upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, fmt.Sprintf("websocket upgrade failed: %v", err), http.StatusBadRequest)
			return
		}
		defer func() { _ = conn.Close() }()
		t.readLoop(conn)
	})
}

func (t *WebSocket) readLoop(conn *websocket.Conn) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			return
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case t.in <- payload:
		case <-t.closed:
			return
		}
	}
}

// Close closes every pooled outbound connection and stops forwarding
// inbound frames onto the receive stream; the stream channel itself is
// not closed.
func (t *WebSocket) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for url, conn := range t.conns {
		_ = conn.Close()
		delete(t.conns, url)
	}
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}
