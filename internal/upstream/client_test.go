//go:build !windows

package upstream_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cordbroker/cord-broker/internal/events"
	"github.com/cordbroker/cord-broker/internal/presence"
	"github.com/cordbroker/cord-broker/internal/upstream"
	"github.com/cordbroker/cord-broker/internal/wire"
)

type fakeQueue struct {
	ch chan events.Message
}

func newFakeQueue() *fakeQueue { return &fakeQueue{ch: make(chan events.Message, 16)} }

func (q *fakeQueue) Enqueue(m events.Message) { q.ch <- m }

// startFakeEndpoint listens on <dir>/discord-ipc-0 and accepts one
// connection, handing it to fn for scripted handshake/frame behavior.
func startFakeEndpoint(t *testing.T, dir string, fn func(conn net.Conn)) {
	t.Helper()
	l, err := net.Listen("unix", dir+"/discord-ipc-0")
	require.NoError(t, err)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer l.Close()
		fn(conn)
	}()
}

func TestClientHandshakeMarksReady(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	startFakeEndpoint(t, dir, func(conn net.Conn) {
		defer conn.Close()
		op, body, err := wire.DecodeFrame(conn)
		require.NoError(t, err)
		require.Equal(t, wire.OpHandshake, op)
		require.Contains(t, string(body), `"client_id":"42"`)

		// First body read by the client's readLoop flips it ready.
		require.NoError(t, writeFrame(conn, wire.OpFrame, []byte(`{"evt":"READY"}`)))
		time.Sleep(50 * time.Millisecond)
	})

	queue := newFakeQueue()
	client := upstream.NewClient(42, 1234, queue, nil)
	require.NoError(t, client.Connect())

	select {
	case msg := <-queue.ch:
		require.Equal(t, events.Ready, msg.Event.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a Ready event")
	}
	require.Eventually(t, client.IsReady, time.Second, 5*time.Millisecond)
}

func TestClientDropsUpdateBeforeReady(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	startFakeEndpoint(t, dir, func(conn net.Conn) {
		defer conn.Close()
		_, _, _ = wire.DecodeFrame(conn)
		time.Sleep(200 * time.Millisecond)
	})

	client := upstream.NewClient(1, 1, newFakeQueue(), nil)
	require.NoError(t, client.Connect())

	err := client.Update(&presence.Activity{Details: "x"})
	require.ErrorIs(t, err, upstream.ErrNotReady)
}

func writeFrame(conn net.Conn, opcode uint32, body []byte) error {
	_, err := conn.Write(wire.EncodeFrame(opcode, body))
	return err
}
