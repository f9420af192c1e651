// Package transport provides the platform-specific listener construction
// for the Pipe Server (Component B, §4.2): a Unix domain socket listener on
// non-Windows, a named-pipe listener on Windows. Adapted from
// internal/suggestions/transport in the teacher repo.
package transport

import "net"

// Transport builds the platform listener the Pipe Server accepts on.
type Transport interface {
	// Listen creates and returns a listener, removing any stale
	// socket/pipe artifact first.
	Listen() (net.Listener, error)

	// Name returns the socket path or pipe name this transport listens on.
	Name() string
}

// New returns the Transport appropriate for pipeName on the current
// platform (Unix socket path, or Windows named-pipe name).
func New(pipeName string) Transport {
	return newPlatformTransport(pipeName)
}
