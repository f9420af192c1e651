//go:build !windows

package transport

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// unixTransport implements Transport over a Unix domain socket, grounded on
// internal/suggestions/transport/unix.go's stale-socket cleanup + Listen
// shape (§4.2: "unlink the socket path if it exists, then bind a stream
// listener").
type unixTransport struct {
	path string
}

func newPlatformTransport(pipeName string) Transport {
	return &unixTransport{path: pipeName}
}

func (t *unixTransport) Listen() (net.Listener, error) {
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create socket directory: %w", err)
		}
	}
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	l, err := net.Listen("unix", t.path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	return l, nil
}

func (t *unixTransport) Name() string { return t.path }
