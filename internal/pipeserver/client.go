package pipeserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/cordbroker/cord-broker/internal/events"
	"github.com/cordbroker/cord-broker/internal/wire"
)

// readBufferSize matches §4.2's "reads up to 4 KiB at a time".
const readBufferSize = 4096

// PipeClient wraps one accepted connection: a read worker decoding the
// downstream codec into events, and a synchronized writer for
// broadcast/write_to (§4.2).
type PipeClient struct {
	id      uint64
	conn    net.Conn
	queue   Queue
	onClose func(id uint64)

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newPipeClient(id uint64, conn net.Conn, queue Queue, onClose func(uint64)) *PipeClient {
	return &PipeClient{id: id, conn: conn, queue: queue, onClose: onClose}
}

func (c *PipeClient) startReadLoop() {
	go c.readLoop()
}

// readLoop decodes one downstream message at a time; EOF enqueues
// Disconnect, any other error enqueues Error, both exit the worker (§4.2,
// §7).
func (c *PipeClient) readLoop() {
	r := bufio.NewReaderSize(c.conn, readBufferSize)
	for {
		msgType, data, err := wire.DecodeMessage(r)
		if err != nil {
			c.handleReadError(err)
			return
		}
		msg, err := c.toMessage(msgType, data)
		if err != nil {
			// Parse errors on downstream frames: log-worthy, drop the
			// frame, keep the session (§7).
			if c.queue != nil {
				c.queue.Enqueue(events.NewLog(0, 3, fmt.Sprintf("client %d: %v", c.id, err)))
			}
			continue
		}
		if c.queue != nil {
			c.queue.Enqueue(msg)
		}
	}
}

func (c *PipeClient) handleReadError(err error) {
	defer c.finish()
	if errors.Is(err, io.EOF) {
		if c.queue != nil {
			c.queue.Enqueue(events.NewDisconnect(c.id))
		}
		return
	}
	if c.queue != nil {
		c.queue.Enqueue(events.NewError(c.id, fmt.Errorf("pipeserver: read: %w", err)))
	}
}

func (c *PipeClient) finish() {
	if c.onClose != nil {
		c.onClose(c.id)
	}
	c.Close()
}

func (c *PipeClient) toMessage(msgType string, data interface{}) (events.Message, error) {
	switch msgType {
	case "connect":
		return events.NewConnect(c.id), nil
	case "initialize":
		cfg, err := decodeInitialize(data)
		if err != nil {
			return events.Message{}, err
		}
		return events.Message{ClientID: c.id, Event: events.Event{
			Kind:       events.Initialize,
			Initialize: &events.InitializePayload{Config: cfg},
		}}, nil
	case "update_activity":
		ctx, err := decodeActivityContext(data)
		if err != nil {
			return events.Message{}, err
		}
		return events.Message{ClientID: c.id, Event: events.Event{
			Kind:           events.UpdateActivity,
			UpdateActivity: &events.UpdateActivityPayload{Context: ctx},
		}}, nil
	case "clear_activity":
		force := decodeForce(data)
		return events.Message{ClientID: c.id, Event: events.Event{
			Kind:          events.ClearActivity,
			ClearActivity: &events.ClearActivityPayload{Force: force},
		}}, nil
	case "update_workspace":
		workspace, err := decodeWorkspace(data)
		if err != nil {
			return events.Message{}, err
		}
		return events.NewUpdateWorkspace(c.id, workspace), nil
	case "set_timestamp":
		ts, err := decodeTimestamp(data)
		if err != nil {
			return events.Message{}, err
		}
		return events.NewSetTimestamp(c.id, ts), nil
	case "reset_timestamp":
		return events.NewResetTimestamp(c.id), nil
	case "disconnect":
		return events.NewDisconnect(c.id), nil
	default:
		return events.Message{}, fmt.Errorf("pipeserver: unrecognized message type %q", msgType)
	}
}

// write sends a single downstream payload to this client.
func (c *PipeClient) write(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(b)
	return err
}

// Close closes the underlying connection exactly once.
func (c *PipeClient) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}
