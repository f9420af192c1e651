// Package pipeserver implements the Pipe Server (Component B, §4.2): it
// accepts editor connections on the platform transport, assigns monotonic
// session ids, and runs one read worker per client. Grounded structurally
// on internal/suggestions/transport's Transport abstraction, upgraded to a
// real Windows named-pipe server (see internal/pipeserver/transport).
package pipeserver

import (
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cordbroker/cord-broker/internal/events"
	"github.com/cordbroker/cord-broker/internal/pipeserver/transport"
)

// Queue is the subset of the broker's event queue the pipe server needs.
type Queue interface {
	Enqueue(events.Message)
}

// Registrar inserts a newly accepted client's session into the session
// manager. The accept loop calls it synchronously, before starting the
// client's read worker, so the session is guaranteed to exist before any
// message from that client can reach the dispatcher (§4.2 step 3).
type Registrar interface {
	CreateSession(id uint64)
}

// Server accepts editor connections and multiplexes reads/writes across them.
type Server struct {
	transport transport.Transport
	queue     Queue
	registrar Registrar

	nextClientID atomic.Uint64

	mu      sync.RWMutex
	clients map[uint64]*PipeClient

	listener net.Listener
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New constructs a Server listening on pipeName (a Unix socket path or
// Windows pipe name). registrar may be nil, in which case no session is
// inserted on accept (used by tests that only exercise the transport).
func New(pipeName string, queue Queue, registrar Registrar) *Server {
	return &Server{
		transport: transport.New(pipeName),
		queue:     queue,
		registrar: registrar,
		clients:   make(map[uint64]*PipeClient),
	}
}

// Start binds the listener, prints the §7 "Ready" banner exactly once, and
// runs the accept loop in a dedicated goroutine.
func (s *Server) Start() error {
	l, err := s.transport.Listen()
	if err != nil {
		return fmt.Errorf("pipeserver: start: %w", err)
	}
	s.listener = l
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	fmt.Fprintln(os.Stdout, "Ready")

	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer close(s.doneCh)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				if s.queue != nil {
					s.queue.Enqueue(events.NewError(0, fmt.Errorf("pipeserver: accept: %w", err)))
				}
				return
			}
		}

		id := s.nextClientID.Add(1)
		client := newPipeClient(id, conn, s.queue, s.removeClient)

		s.mu.Lock()
		s.clients[id] = client
		s.mu.Unlock()

		if s.registrar != nil {
			s.registrar.CreateSession(id)
		}

		client.startReadLoop()
		if s.queue != nil {
			s.queue.Enqueue(events.NewConnect(id))
		}
	}
}

func (s *Server) removeClient(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// Stop closes the listener and every connected client.
func (s *Server) Stop() {
	if s.stopCh != nil {
		close(s.stopCh)
	}
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	clients := make([]*PipeClient, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[uint64]*PipeClient)
	s.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	if s.doneCh != nil {
		<-s.doneCh
	}
}

// ClientCount reports how many editors are currently connected, used by the
// dispatcher's idle-shutdown check (§4.5).
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast writes msg to every connected client, dropping any that fail.
func (s *Server) Broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		if err := c.write(msg); err != nil {
			delete(s.clients, id)
		}
	}
}

// WriteTo writes msg to one client.
func (s *Server) WriteTo(id uint64, msg []byte) error {
	s.mu.RLock()
	c, ok := s.clients[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("pipeserver: client %d not found", id)
	}
	if err := c.write(msg); err != nil {
		s.removeClient(id)
		return err
	}
	return nil
}

// Disconnect drops a session, closing its pipe.
func (s *Server) Disconnect(id uint64) {
	s.mu.Lock()
	c, ok := s.clients[id]
	delete(s.clients, id)
	s.mu.Unlock()
	if ok {
		c.Close()
	}
}
