package pipeserver_test

import (
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cordbroker/cord-broker/internal/events"
	"github.com/cordbroker/cord-broker/internal/pipeserver"
	"github.com/cordbroker/cord-broker/internal/wire"
)

type fakeQueue struct {
	ch chan events.Message
}

func newFakeQueue() *fakeQueue { return &fakeQueue{ch: make(chan events.Message, 32)} }

func (q *fakeQueue) Enqueue(m events.Message) { q.ch <- m }

func (q *fakeQueue) next(t *testing.T) events.Message {
	t.Helper()
	select {
	case m := <-q.ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return events.Message{}
	}
}

type fakeRegistrar struct {
	mu      sync.Mutex
	created []uint64
}

func (r *fakeRegistrar) CreateSession(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, id)
}

func (r *fakeRegistrar) createdIDs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.created...)
}

func TestAcceptRegistersSessionBeforeConnectEvent(t *testing.T) {
	queue := newFakeQueue()
	registrar := &fakeRegistrar{}
	sockPath := filepath.Join(t.TempDir(), "cord-ipc")
	srv := pipeserver.New(sockPath, queue, registrar)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	conn, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn.Close()

	msg := queue.next(t)
	require.Equal(t, events.Connect, msg.Event.Kind)
	require.Equal(t, uint64(1), msg.ClientID)
	require.Equal(t, []uint64{1}, registrar.createdIDs())
}

func TestAcceptAssignsMonotonicIDsAndEmitsConnect(t *testing.T) {
	queue := newFakeQueue()
	sockPath := filepath.Join(t.TempDir(), "cord-ipc")
	srv := pipeserver.New(sockPath, queue, nil)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	conn1, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn1.Close()

	msg := queue.next(t)
	require.Equal(t, events.Connect, msg.Event.Kind)
	require.Equal(t, uint64(1), msg.ClientID)

	conn2, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn2.Close()

	msg = queue.next(t)
	require.Equal(t, events.Connect, msg.Event.Kind)
	require.Equal(t, uint64(2), msg.ClientID)
}

func TestClientDisconnectOnEOF(t *testing.T) {
	queue := newFakeQueue()
	sockPath := filepath.Join(t.TempDir(), "cord-ipc")
	srv := pipeserver.New(sockPath, queue, nil)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	conn, err := net.Dial("unix", sockPath)
	require.NoError(t, err)

	require.Equal(t, events.Connect, queue.next(t).Event.Kind)

	conn.Close()
	msg := queue.next(t)
	require.Equal(t, events.Disconnect, msg.Event.Kind)
}

func TestUpdateActivityDecoding(t *testing.T) {
	queue := newFakeQueue()
	sockPath := filepath.Join(t.TempDir(), "cord-ipc")
	srv := pipeserver.New(sockPath, queue, nil)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	conn, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn.Close()

	require.Equal(t, events.Connect, queue.next(t).Event.Kind)

	encoded, err := wire.EncodeMessage("update_activity", map[string]interface{}{
		"filename": "main.go",
		"filetype": "go",
	})
	require.NoError(t, err)
	_, err = conn.Write(encoded)
	require.NoError(t, err)

	msg := queue.next(t)
	require.Equal(t, events.UpdateActivity, msg.Event.Kind)
	require.Equal(t, "main.go", msg.Event.UpdateActivity.Context.Filename)
	require.Equal(t, "go", msg.Event.UpdateActivity.Context.Filetype)
}

func TestBroadcastReachesAllClients(t *testing.T) {
	queue := newFakeQueue()
	sockPath := filepath.Join(t.TempDir(), "cord-ipc")
	srv := pipeserver.New(sockPath, queue, nil)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	conn1, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn1.Close()
	conn2, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn2.Close()

	queue.next(t)
	queue.next(t)

	payload, err := wire.EncodeMessage("ready", nil)
	require.NoError(t, err)
	srv.Broadcast(payload)

	buf1 := make([]byte, len(payload))
	conn1.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn1.Read(buf1)
	require.NoError(t, err)
	require.Equal(t, payload, buf1)

	buf2 := make([]byte, len(payload))
	conn2.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn2.Read(buf2)
	require.NoError(t, err)
	require.Equal(t, payload, buf2)
}
