// Package upstream implements the single connection to the external
// presence endpoint (Component A, §4.1): handshake, write, background
// read, and reconnect-with-backoff. Grounded structurally on
// internal/suggestions/transport's candidate-path dialing and on the
// Discord IPC handshake/SET_ACTIVITY shape in
// _examples/other_examples/81fa25e3_jfmyers9-scribbles__internal-discord-ipc.go.go,
// with the reconnect loop itself grounded on original_source/src/cord.rs.
package upstream

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cordbroker/cord-broker/internal/events"
	"github.com/cordbroker/cord-broker/internal/presence"
	"github.com/cordbroker/cord-broker/internal/wire"
)

// ErrConnectionClosed is returned by Update/Clear when the underlying
// write to the upstream connection fails (§7 "Upstream write failure").
var ErrConnectionClosed = errors.New("upstream: connection closed")

// ErrNotReady is returned when Update/Clear is called before the upstream
// handshake has completed; no frame is sent or queued (I4).
var ErrNotReady = errors.New("upstream: not ready")

// Queue is the subset of the broker's event queue the upstream client
// needs, kept as an interface to avoid importing internal/broker.
type Queue interface {
	Enqueue(events.Message)
}

// Client owns the single connection to the presence endpoint.
type Client struct {
	clientID uint64
	queue    Queue
	log      *slog.Logger

	mu   sync.Mutex
	conn net.Conn
	pid  uint32

	ready          atomic.Bool
	isReconnecting atomic.Bool
}

// NewClient constructs a Client for the given decimal client id. pid is the
// process id reported in SET_ACTIVITY bodies.
func NewClient(clientID uint64, pid uint32, queue Queue, log *slog.Logger) *Client {
	return &Client{clientID: clientID, pid: pid, queue: queue, log: log}
}

// IsReady reports whether the handshake has completed (I4 gate).
func (c *Client) IsReady() bool { return c.ready.Load() }

// Connect dials the platform transport, trying each candidate in turn, and
// performs the handshake. On success it starts the background read loop.
func (c *Client) Connect() error {
	conn, err := dialTransport()
	if err != nil {
		return fmt.Errorf("upstream: connect: %w", err)
	}

	handshake, err := wire.Handshake(c.clientID)
	if err != nil {
		conn.Close()
		return fmt.Errorf("upstream: build handshake: %w", err)
	}
	if _, err := conn.Write(wire.EncodeFrame(wire.OpHandshake, handshake)); err != nil {
		conn.Close()
		return fmt.Errorf("upstream: send handshake: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// readLoop is the single background reader of §4.1: on the first
// successful body it marks the connection ready and enqueues Ready; every
// read error enqueues Error and exits.
func (c *Client) readLoop(conn net.Conn) {
	first := true
	for {
		_, _, err := wire.DecodeFrame(conn)
		if err != nil {
			c.ready.Store(false)
			if c.queue != nil {
				c.queue.Enqueue(events.NewError(0, fmt.Errorf("upstream read: %w", err)))
			}
			return
		}
		if first {
			first = false
			c.ready.Store(true)
			if c.queue != nil {
				c.queue.Enqueue(events.NewReady())
			}
		}
	}
}

// Update serializes and sends a SET_ACTIVITY frame carrying a. Per I4,
// nothing is sent (or buffered) while not ready.
func (c *Client) Update(a *presence.Activity) error {
	return c.send(a)
}

// Clear sends a SET_ACTIVITY frame with no activity field (§4.1 clear).
func (c *Client) Clear() error {
	return c.send(nil)
}

func (c *Client) send(a *presence.Activity) error {
	if !c.ready.Load() {
		return ErrNotReady
	}
	body, err := wire.ActivityPacket(c.pid, a)
	if err != nil {
		return fmt.Errorf("upstream: build packet: %w", err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotReady
	}

	if _, err := conn.Write(wire.EncodeFrame(wire.OpFrame, body)); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
	return nil
}

// Close sends an opcode-2 close frame (best effort) and closes the
// connection.
func (c *Client) Close() error {
	c.ready.Store(false)
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	_, _ = conn.Write(wire.EncodeFrame(wire.OpClose, nil))
	return conn.Close()
}

// Reconnect implements §4.1's reconnect flow: is_reconnecting guards
// reentry; close → sleep 500ms → loop{connect; if ok handshake (done
// inside Connect); if ok start read loop (also inside Connect), break;
// else close and sleep intervalMs}. An intervalMs of 0 or less sleeps
// 500ms between attempts instead.
func (c *Client) Reconnect(intervalMs int64) {
	if !c.isReconnecting.CompareAndSwap(false, true) {
		return
	}
	defer c.isReconnecting.Store(false)

	_ = c.Close()
	time.Sleep(500 * time.Millisecond)

	interval := time.Duration(intervalMs) * time.Millisecond
	for {
		if err := c.Connect(); err == nil {
			return
		} else if c.log != nil {
			c.log.Error("upstream reconnect attempt failed", "error", err)
		}
		_ = c.Close()
		if interval <= 0 {
			interval = 500 * time.Millisecond
		}
		time.Sleep(interval)
	}
}
