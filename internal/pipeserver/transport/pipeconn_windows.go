//go:build windows

package transport

import (
	"net"
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// serverPipeConn adapts one connected named-pipe instance to net.Conn,
// performing each ReadFile/WriteFile as an OVERLAPPED operation completed
// synchronously via WaitForSingleObject(INFINITE), per §4.2's "Windows
// PipeClient uses OVERLAPPED I/O with a manual-reset event and
// WaitForSingleObject(INFINITE) to synchronously complete each read/write".
type serverPipeConn struct {
	mu   sync.Mutex
	h    windows.Handle
	name string
}

func newServerPipeConn(h windows.Handle, name string) *serverPipeConn {
	return &serverPipeConn{h: h, name: name}
}

func (p *serverPipeConn) Read(b []byte) (int, error) {
	var n uint32
	ov, err := newOverlappedWin()
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(ov.HEvent)

	err = windows.ReadFile(p.h, b, nil, ov)
	if err != nil && err != windows.ERROR_IO_PENDING {
		return 0, err
	}
	if _, err := windows.WaitForSingleObject(ov.HEvent, windows.INFINITE); err != nil {
		return 0, err
	}
	if err := windows.GetOverlappedResult(p.h, ov, &n, false); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (p *serverPipeConn) Write(b []byte) (int, error) {
	var n uint32
	ov, err := newOverlappedWin()
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(ov.HEvent)

	err = windows.WriteFile(p.h, b, nil, ov)
	if err != nil && err != windows.ERROR_IO_PENDING {
		return 0, err
	}
	if _, err := windows.WaitForSingleObject(ov.HEvent, windows.INFINITE); err != nil {
		return 0, err
	}
	if err := windows.GetOverlappedResult(p.h, ov, &n, false); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (p *serverPipeConn) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.h == 0 {
		return nil
	}
	windows.FlushFileBuffers(p.h)
	windows.DisconnectNamedPipe(p.h)
	err := windows.CloseHandle(p.h)
	p.h = 0
	return err
}

func (p *serverPipeConn) LocalAddr() net.Addr                { return pipeAddr(p.name) }
func (p *serverPipeConn) RemoteAddr() net.Addr               { return pipeAddr(p.name) }
func (p *serverPipeConn) SetDeadline(t time.Time) error      { return nil }
func (p *serverPipeConn) SetReadDeadline(t time.Time) error  { return nil }
func (p *serverPipeConn) SetWriteDeadline(t time.Time) error { return nil }

type pipeAddr string

func (a pipeAddr) Network() string { return "pipe" }
func (a pipeAddr) String() string  { return string(a) }

func newOverlappedWin() (*windows.Overlapped, error) {
	event, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return nil, err
	}
	return &windows.Overlapped{HEvent: event}, nil
}
